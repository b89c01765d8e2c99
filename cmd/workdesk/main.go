package main

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/workdesk/internal/application"
	"github.com/example/workdesk/internal/config"
	"github.com/example/workdesk/internal/directory"
	httptransport "github.com/example/workdesk/internal/http"
	"github.com/example/workdesk/internal/persistence"
	"github.com/example/workdesk/internal/persistence/memory"
	"github.com/example/workdesk/internal/persistence/sqlite"
	"github.com/example/workdesk/internal/syncbridge"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	repos, closeStorage, err := openStorage(cfg)
	if err != nil {
		logger.Error("failed to open storage", "error", err, "mode", cfg.Mode)
		os.Exit(1)
	}
	defer func() {
		if cerr := closeStorage(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	idGenerator := uuid.NewString
	tokenGenerator := func() string {
		mac := hmac.New(sha256.New, []byte(cfg.SessionSecret))
		mac.Write([]byte(randomHex(32)))
		return hex.EncodeToString(mac.Sum(nil))
	}
	now := time.Now

	geocoder := directory.NewGeocodeClient(cfg.GeocodeBaseURL, nil)
	mailer := directory.NewMailer(cfg.MailEndpoint, cfg.MailAPIKey, cfg.MailFrom, nil)

	authService := application.NewAuthService(repos.users, repos.sessions, nil, idGenerator, tokenGenerator, now, cfg.SessionTTL, logger)
	userService := application.NewUserService(repos.users, nil, idGenerator, now, logger)
	projectService := application.NewProjectService(repos.projects, idGenerator, now, logger)
	eventService := application.NewEventService(repos.events, idGenerator, now, logger)
	chatService := application.NewChatService(repos.chats, repos.notifications, idGenerator, now, logger)
	taskService := application.NewTaskService(repos.todos, repos.boards, idGenerator, now, logger)
	approvalService := application.NewApprovalService(repos.approvals, idGenerator, now, logger)
	welfareService := application.NewWelfareService(repos.welfare, repos.events, idGenerator, now, logger)
	attendanceService := application.NewAttendanceService(repos.attendance, geocoder, idGenerator, now, logger)
	bridge := syncbridge.NewBridge(repos.todos, repos.notifications, repos.events, repos.welfare, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(authService, logger),
		Users:      httptransport.NewUserHandler(userService, logger),
		Projects:   httptransport.NewProjectHandler(projectService, logger),
		Events:     httptransport.NewEventHandler(eventService, logger),
		Chat:       httptransport.NewChatHandler(chatService, logger),
		Tasks:      httptransport.NewTaskHandler(taskService, logger),
		Approvals:  httptransport.NewApprovalHandler(approvalService, logger),
		Welfare:    httptransport.NewWelfareHandler(welfareService, logger),
		Attendance: httptransport.NewAttendanceHandler(attendanceService, logger),
		Sync:       httptransport.NewSyncHandler(bridge, logger),
		Mail:       httptransport.NewMailHandler(mailer, logger),
	})

	protected := httptransport.RequireSession(authService, logger)(router)
	handler := httptransport.RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			router.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("workdesk API listening", "addr", server.Addr, "mode", cfg.Mode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// isPublicPath reports whether the request may skip session validation.
// Refresh carries its own token and validates it in the service layer.
func isPublicPath(path string) bool {
	return strings.EqualFold(path, "/sessions") || strings.EqualFold(path, "/sessions/refresh")
}

type repositories struct {
	users         persistence.UserRepository
	sessions      persistence.SessionRepository
	projects      persistence.ProjectRepository
	events        persistence.EventRepository
	chats         persistence.ChatRepository
	notifications persistence.NotificationRepository
	todos         persistence.TodoRepository
	boards        persistence.BoardRepository
	approvals     persistence.ApprovalRepository
	welfare       persistence.WelfareRepository
	attendance    persistence.AttendanceRepository
}

// openStorage builds the repository set for the configured mode. SQLite mode
// backs every repository with the shared connection pool; memory mode serves
// everything from one snapshot-backed store.
func openStorage(cfg config.Config) (repositories, func() error, error) {
	switch cfg.Mode {
	case config.ModeSQLite:
		pool, err := sqlite.NewConnectionPool(cfg.SQLitePath)
		if err != nil {
			return repositories{}, nil, err
		}
		if err := pool.Migrate(context.Background()); err != nil {
			_ = pool.Close()
			return repositories{}, nil, err
		}
		return repositories{
			users:         sqlite.NewUserRepository(pool),
			sessions:      sqlite.NewSessionRepository(pool),
			projects:      sqlite.NewProjectRepository(pool),
			events:        sqlite.NewEventRepository(pool),
			chats:         sqlite.NewChatRepository(pool),
			notifications: sqlite.NewNotificationRepository(pool),
			todos:         sqlite.NewTodoRepository(pool),
			boards:        sqlite.NewBoardRepository(pool),
			approvals:     sqlite.NewApprovalRepository(pool),
			welfare:       sqlite.NewWelfareRepository(pool),
			attendance:    sqlite.NewAttendanceRepository(pool),
		}, pool.Close, nil
	case config.ModeMemory:
		store, err := memory.Open(cfg.DataDir, memory.Snapshot{})
		if err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			users:         store,
			sessions:      store,
			projects:      store,
			events:        store,
			chats:         store,
			notifications: store,
			todos:         store,
			boards:        store,
			approvals:     store,
			welfare:       store,
			attendance:    store,
		}, store.Close, nil
	default:
		return repositories{}, nil, fmt.Errorf("알 수 없는 저장소 모드입니다: %q", cfg.Mode)
	}
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
