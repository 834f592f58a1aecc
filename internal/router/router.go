package router

import (
	"database/sql"
	"net/http"
	"time"

	mem "shelter-medical/internal/adapters/storage/memory"
	pg "shelter-medical/internal/adapters/storage/postgres"
	"shelter-medical/internal/domain/animals"
	"shelter-medical/internal/domain/duewindows"
	"shelter-medical/internal/domain/labtests"
	"shelter-medical/internal/domain/profiles"
	"shelter-medical/internal/domain/regimens"
	"shelter-medical/internal/domain/vaccinations"
	"shelter-medical/internal/middleware"
	"shelter-medical/internal/platform/logger"
	"shelter-medical/internal/platform/metrics"
	"shelter-medical/internal/ports/auth"
	"shelter-medical/internal/ports/presenter"

	_ "shelter-medical/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger    *logger.ZapLogger
	Metrics   *metrics.Metrics
	Presenter presenter.Presenter

	// IncludeOffShelter: los reportes de vencimiento incluyen animales
	// archivados que no están en tránsito.
	IncludeOffShelter bool

	ServiceName string
	// Now fija el "hoy" de los reportes relativos cuando no viene as_of.
	Now func() time.Time
}

type repos struct {
	animals      animals.Repository
	profiles     profiles.Repository
	regimens     regimens.Repository
	vaccinations vaccinations.Repository
	tests        labtests.Repository
	due          duewindows.Source
}

func memoryRepos() repos {
	a := mem.NewAnimalsRepo()
	v := mem.NewVaccinationsRepo()
	t := mem.NewTestsRepo()
	r := mem.NewRegimensRepo()
	return repos{
		animals:      a,
		profiles:     mem.NewProfilesRepo(),
		regimens:     r,
		vaccinations: v,
		tests:        t,
		due:          mem.NewDueSource(a, v, t, r),
	}
}

func postgresRepos(db *sql.DB) repos {
	return repos{
		animals:      pg.NewAnimalsRepo(db),
		profiles:     pg.NewProfilesRepo(db),
		regimens:     pg.NewRegimensRepo(db),
		vaccinations: pg.NewVaccinationsRepo(db),
		tests:        pg.NewTestsRepo(db),
		due:          pg.NewDueSource(db),
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.FromZap(nil)
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New(nil)
	}
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = "shelter-medical"
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(log.Zap()))
	r.Use(middleware.Recover(log.Zap()))

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var st repos
	if opts.DB != nil {
		st = postgresRepos(opts.DB)
	} else {
		st = memoryRepos()
	}

	// Services por módulo
	animalsSvc := animals.NewService(st.animals)
	profilesSvc := profiles.NewService(st.profiles)
	regimensSvc := regimens.NewService(st.regimens, regimens.Deps{
		Profiles: profilesSvc,
		Animals:  animalsSvc,
		Logger:   log,
		Metrics:  m,
	})
	vaccinationsSvc := vaccinations.NewService(st.vaccinations, vaccinations.Deps{
		Animals: animalsSvc,
		Logger:  log,
		Metrics: m,
	})
	testsSvc := labtests.NewService(st.tests, m)
	dueSvc := duewindows.NewService(st.due, duewindows.Options{
		IncludeOffShelter: opts.IncludeOffShelter,
		Metrics:           m,
	})

	// Rutas por módulo
	animals.RegisterRoutes(r, animalsSvc)
	profiles.RegisterRoutes(r, profilesSvc)
	regimens.RegisterRoutes(r, regimensSvc, opts.Presenter)
	vaccinations.RegisterRoutes(r, vaccinationsSvc)
	labtests.RegisterRoutes(r, testsSvc)
	duewindows.RegisterRoutes(r, dueSvc, opts.Now)

	return r
}
