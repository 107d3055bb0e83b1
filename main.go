package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	cli "github.com/jawher/mow.cli"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/icebreakr/icebreakr-backend/api"
	"github.com/icebreakr/icebreakr-backend/auth"
	"github.com/icebreakr/icebreakr-backend/enrichment"
	"github.com/icebreakr/icebreakr-backend/persistence"
	"github.com/icebreakr/icebreakr-backend/relay"
	"github.com/icebreakr/icebreakr-backend/users"
)

const (
	appName        = "icebreakr-backend"
	appDescription = "Backend serving the icebreakr single-page client: Google auth, realtime chat relay, icebreaker and vibe enrichment proxies"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, relying on process environment")
	}

	app := cli.App(appName, appDescription)

	sqlCredentials := app.String(cli.StringOpt{
		Name:      "sqlCredentials",
		Desc:      "Username and password to connect to db, should be in 'user:pass' format",
		EnvVar:    "SQL_CREDENTIALS",
		HideValue: true,
	})
	sqlDSN := app.String(cli.StringOpt{
		Name:      "sqlDSN",
		Desc:      "DSN to connect to the DB e.g. user:pass@host/schema",
		EnvVar:    "SQL_DSN",
		HideValue: true,
	})
	icebreakerAPIURL := app.String(cli.StringOpt{
		Name:   "icebreakerAPIURL",
		Desc:   "Url of the icebreaker question generator",
		EnvVar: "ICEBREAKER_API_URL",
	})
	vibeAPIURL := app.String(cli.StringOpt{
		Name:   "vibeAPIURL",
		Desc:   "Url of the vibe sentiment classifier",
		EnvVar: "VIBE_API_URL",
	})
	sessionSecret := app.String(cli.StringOpt{
		Name:      "sessionSecret",
		Desc:      "Secret used to sign session cookies",
		EnvVar:    "COOKIE_KEY",
		HideValue: true,
	})
	googleClientID := app.String(cli.StringOpt{
		Name:   "googleClientID",
		Desc:   "Google OAuth client id",
		EnvVar: "GOOGLE_CLIENT_ID",
	})
	googleClientSecret := app.String(cli.StringOpt{
		Name:      "googleClientSecret",
		Desc:      "Google OAuth client secret",
		EnvVar:    "GOOGLE_CLIENT_SECRET",
		HideValue: true,
	})
	oauthRedirectURL := app.String(cli.StringOpt{
		Name:   "oauthRedirectURL",
		Value:  "http://localhost:8080/auth/google/callback",
		Desc:   "Redirect url registered with the OAuth provider",
		EnvVar: "OAUTH_REDIRECT_URL",
	})
	staticDir := app.String(cli.StringOpt{
		Name:   "staticDir",
		Value:  "./client/dist",
		Desc:   "Directory holding the built single-page client",
		EnvVar: "STATIC_DIR",
	})
	port := app.String(cli.StringOpt{
		Name:   "port",
		Value:  "8080",
		Desc:   "Port to listen on",
		EnvVar: "APP_PORT",
	})
	logLevel := app.String(cli.StringOpt{
		Name:   "logLevel",
		Value:  "info",
		Desc:   "App log level",
		EnvVar: "LOG_LEVEL",
	})

	logLvl, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.WithField("logLevel", logLevel).WithError(err).Error("could not parse log level. Using INFO instead.")
		logLvl = log.InfoLevel
	}
	log.SetLevel(logLvl)
	log.Infof("[Startup] %s is starting on port %s...", appName, *port)

	app.Action = func() {
		if *sqlDSN == "" {
			log.Fatal("SQL connection string not set")
			return
		}
		if *sqlCredentials == "" {
			log.Fatal("SQL Username and password not set")
			return
		}
		if *icebreakerAPIURL == "" {
			log.Fatal("icebreaker provider url not set")
			return
		}
		if *vibeAPIURL == "" {
			log.Fatal("vibe provider url not set")
			return
		}
		if *sessionSecret == "" {
			log.Fatal("session secret not set")
			return
		}

		sqlClient, err := persistence.NewClient(*sqlDSN, *sqlCredentials)
		if err != nil {
			return
		}

		enrichmentClient := enrichment.NewClient(*icebreakerAPIURL, *vibeAPIURL, nil)

		hub := relay.NewHub()
		go hub.Run()

		apiHandler := api.NewHandler(sqlClient, enrichmentClient)
		usersHandler := users.NewUsersHandler(sqlClient)
		authHandler := auth.NewHandler(sqlClient, auth.Config{
			ClientID:      *googleClientID,
			ClientSecret:  *googleClientSecret,
			RedirectURL:   *oauthRedirectURL,
			SessionSecret: *sessionSecret,
		})

		r := mux.NewRouter()
		apiHandler.RegisterHandlers(r)
		usersHandler.RegisterHandlers(r)
		authHandler.RegisterHandlers(r)
		r.Handle("/ws", relay.Handler(hub))
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(*staticDir)))

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

		go func() {
			log.Infof("Listening on port %v", *port)
			if err := http.ListenAndServe(":"+*port, r); err != nil {
				log.Errorf("HTTP server got shut down error: %v", err)
			}
			sig <- os.Interrupt
		}()

		<-sig
		log.Info("shutting down HTTP server...")
		hub.Stop()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("app run failed")
	}
}
