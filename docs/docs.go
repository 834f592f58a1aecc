// Package docs registra la especificación OpenAPI servida en /swagger.
// Se regenera con: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["text/plain"],
                "tags": ["platform"],
                "summary": "Liveness",
                "responses": {"200": {"description": "ok"}}
            }
        },
        "/animals/{animalID}/regimens": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["regimens"],
                "summary": "Alta de régimen",
                "parameters": [
                    {"type": "string", "name": "animalID", "in": "path", "required": true}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            },
            "get": {
                "produces": ["application/json"],
                "tags": ["regimens"],
                "summary": "Regímenes de un animal",
                "parameters": [
                    {"type": "string", "name": "animalID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/treatments/{treatmentID}/given": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["regimens"],
                "summary": "Marca un tratamiento como aplicado",
                "parameters": [
                    {"type": "string", "name": "treatmentID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}
            }
        },
        "/due/{kind}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["due"],
                "summary": "Pendientes por ventana relativa",
                "parameters": [
                    {"type": "string", "name": "kind", "in": "path", "required": true},
                    {"type": "string", "name": "offset", "in": "query", "required": true},
                    {"type": "string", "name": "as_of", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Shelter Medical API",
	Description:      "Regímenes, vacunas, tests y ventanas de vencimiento del refugio.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
