// Package tracker is the project tracking service: projects with members,
// tasks on a board, assignments, comments, and a realtime channel per
// project. Authorization is a table of per-action predicates evaluated
// against the caller's standing on the owning project.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jackc/pgx/v5/pgxpool"

	"projecthub/internal/authmw"
	"projecthub/internal/logging"
	"projecthub/internal/notify"
	"projecthub/internal/realtime"
)

const (
	apiVersion = "/api/v1"
)

var (
	config    Config
	engine    *gin.Engine
	pool      *pgxpool.Pool
	hub       *realtime.Hub
	directory *authmw.Directory
	notifier  *notify.Notifier
)

func initDBConn() {
	var err error
	pool, err = pgxpool.New(
		context.Background(),
		fmt.Sprintf(
			"postgres://%s:%s@%s/%s?sslmode=disable",
			config.DBUser,
			config.DBPassword,
			config.DBAddress,
			config.DBName,
		),
	)
	if err != nil {
		logging.Logger.Fatalf("could not connect to the database: %v", err)
	}

	err = pool.Ping(context.Background())
	if err != nil {
		logging.Logger.Fatalf("failed to ping the db: %v", err)
	}

	b, err := os.ReadFile(config.InitSQLPath)
	if err != nil {
		logging.Logger.Fatalf("failed to open and read the init sql file: %v", err)
	}
	sql := string(b)
	// apply init sql script
	logging.Logger.Printf("executing initialization script...")
	_, err = pool.Exec(context.Background(), sql)
	if err != nil {
		logging.Logger.Fatalf("failed to execute init sql: %v", err)
	}
}

func setCors() {
	corsconfig := cors.DefaultConfig()
	corsconfig.AllowOrigins = config.AllowedOrigins
	corsconfig.AllowMethods = config.AllowedMethods
	corsconfig.AllowHeaders = config.AllowedHeaders
	engine.Use(cors.New(corsconfig))
}

func mustInitKcAuth() *authmw.KeycloakAuth {
	issuer := fmt.Sprintf("http://%s/realms/%s", config.AuthAddress, config.Realm)
	jwksURL := fmt.Sprintf("http://%s/realms/%s/protocol/openid-connect/certs", config.AuthAddress, config.Realm)

	a, err := authmw.NewKeycloakAuth(jwksURL, issuer, config.Audience, config.ClientID)
	if err != nil {
		panic(err)
	}
	return a
}

func mustInitDirectory() {
	var err error
	directory, err = authmw.NewDirectory(config.AuthAddress, config.Realm, config.ClientID, config.ClientSecret)
	if err != nil {
		logging.Logger.Fatalf("could not reach the user directory: %v", err)
	}
}

func setRoutes() {
	root := engine.Group("/")
	{
		root.GET("/healthz", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "alive"})
		})
	}

	kcAuth := mustInitKcAuth()

	api := engine.Group(apiVersion)
	api.Use(kcAuth.RequireAuth())
	{
		api.GET("/users", handleUsersList)

		api.GET("/projects", handleProjectList)
		api.POST("/projects", handleProjectCreate)
		api.GET("/projects/:projectid", handleProjectShow)
		api.PUT("/projects/:projectid", handleProjectUpdate)
		api.POST("/projects/:projectid/archive", handleProjectArchive)
		api.DELETE("/projects/:projectid", handleProjectDelete)

		api.POST("/projects/:projectid/members", handleMemberAdd)
		api.DELETE("/projects/:projectid/members/:userid", handleMemberRemove)

		api.GET("/projects/:projectid/tasks", handleTaskList)
		api.POST("/projects/:projectid/tasks", handleTaskCreate)
		api.GET("/projects/:projectid/tasks/:taskid", handleTaskShow)
		api.PUT("/projects/:projectid/tasks/:taskid", handleTaskUpdate)
		api.POST("/projects/:projectid/tasks/:taskid/move", handleTaskMove)
		api.POST("/projects/:projectid/tasks/:taskid/assign", handleTaskAssign)
		api.POST("/projects/:projectid/tasks/:taskid/unassign", handleTaskUnassign)
		api.POST("/projects/:projectid/tasks/:taskid/complete", handleTaskComplete)
		api.DELETE("/projects/:projectid/tasks/:taskid", handleTaskDelete)

		api.GET("/projects/:projectid/tasks/:taskid/comments", handleCommentList)
		api.POST("/projects/:projectid/tasks/:taskid/comments", handleCommentCreate)
	}

	ws := engine.Group("/ws")
	ws.Use(kcAuth.RequireAuth())
	{
		ws.GET("/projects/:projectid", handleProjectSocket)
	}
}

func InitAndServe(confPath string) {
	config = loadConfig(confPath)
	logging.InitLogger(config.LogPath, config.Verbose)

	engine = gin.Default()
	setGinMode(config.ApiGinMode)

	setCors()

	// init db conn
	initDBConn()

	hub = realtime.NewHub()
	SetPublisher(hub)

	mustInitDirectory()

	notifier = notify.NewNotifier(
		notify.NewMailer(config.MailRelayAddress),
		ListAssigneeEmails,
		collectDigests,
	)

	setRoutes()

	// serve http
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go notifier.RunDigestLoop(ctx, config.DigestInterval)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", config.Port),
		Handler:           engine,
		ReadHeaderTimeout: time.Second * 5,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("listen: %s\n", err)
		}
	}()

	<-ctx.Done()

	stop()
	logging.Logger.Println("shutting down gracefully, press Ctrl+C again to force")

	// close db conn
	pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logging.Logger.Fatal("Server forced to shutdown: ", err)
	}

	logging.Logger.Println("Server exiting")
}

// collectDigests adapts the assignment query for the mail loop.
func collectDigests(ctx context.Context, since time.Time) ([]notify.Digest, error) {
	entries, err := ListDigestEntries(ctx, since)
	if err != nil {
		return nil, err
	}

	digests := make([]notify.Digest, 0, len(entries))
	for _, e := range entries {
		digests = append(digests, notify.Digest{
			Email:  e.Email,
			Name:   e.Name,
			Titles: e.Titles,
		})
	}
	return digests, nil
}

func setGinMode(mode string) {
	switch strings.ToLower(mode) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "envgin":
		gin.SetMode(gin.EnvGinMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
}
