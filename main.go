package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flowstateAPI/handlers"
	"flowstateAPI/internal/notification"
	"flowstateAPI/middleware"
	"flowstateAPI/services"
)

var (
	dbPool              *pgxpool.Pool
	userService         *services.UserService
	goalService         *services.GoalService
	projectService      *services.ProjectService
	taskService         *services.TaskService
	habitService        *services.HabitService
	focusService        *services.FocusService
	scheduleService     *services.ScheduleService
	analyticsService    *services.AnalyticsService
	notificationService *services.NotificationService
	chatbotService      *services.ChatbotService
	reminderScheduler   *services.ReminderScheduler
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool)
	goalService = services.NewGoalService(dbPool)
	projectService = services.NewProjectService(dbPool)
	taskService = services.NewTaskService(dbPool)
	habitService = services.NewHabitService(dbPool, notificationService)
	focusService = services.NewFocusService(dbPool)
	scheduleService = services.NewScheduleService(dbPool)
	analyticsService = services.NewAnalyticsService(dbPool)
	chatbotService = services.NewChatbotService(os.Getenv("OPENAI_API_KEY"))
	reminderScheduler = services.NewReminderScheduler(taskService, notificationService)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	if err := reminderScheduler.Start(); err != nil {
		log.Fatal("Failed to start reminder scheduler:", err)
	}

	userHandler := handlers.NewUserHandler(userService)
	goalHandler := handlers.NewGoalHandler(goalService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	habitHandler := handlers.NewHabitHandler(habitService)
	focusHandler := handlers.NewFocusHandler(focusService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	chatbotHandler := handlers.NewChatbotHandler(chatbotService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "flowstate-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user", userHandler.DeleteAccount).Methods("DELETE")

	protected.HandleFunc("/goals", goalHandler.ListGoals).Methods("GET")
	protected.HandleFunc("/goals", goalHandler.CreateGoal).Methods("POST")
	protected.HandleFunc("/goals/{id}", goalHandler.GetGoal).Methods("GET")
	protected.HandleFunc("/goals/{id}", goalHandler.UpdateGoal).Methods("PUT")
	protected.HandleFunc("/goals/{id}", goalHandler.DeleteGoal).Methods("DELETE")

	protected.HandleFunc("/projects", projectHandler.ListProjects).Methods("GET")
	protected.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	protected.HandleFunc("/projects/{id}", projectHandler.GetProject).Methods("GET")
	protected.HandleFunc("/projects/{id}", projectHandler.UpdateProject).Methods("PUT")
	protected.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods("DELETE")

	protected.HandleFunc("/tasks", taskHandler.ListTasks).Methods("GET")
	protected.HandleFunc("/tasks", taskHandler.CreateTask).Methods("POST")
	protected.HandleFunc("/tasks/quick-capture", taskHandler.QuickCapture).Methods("POST")
	protected.HandleFunc("/tasks/reorder", taskHandler.ReorderTasks).Methods("PUT")
	protected.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods("GET")
	protected.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods("PUT")
	protected.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods("DELETE")
	protected.HandleFunc("/tasks/{id}/complete", taskHandler.CompleteTask).Methods("POST")
	protected.HandleFunc("/tasks/{id}/subtasks", taskHandler.CreateSubtask).Methods("POST")
	protected.HandleFunc("/subtasks/{subtaskId}/toggle", taskHandler.ToggleSubtask).Methods("PUT")
	protected.HandleFunc("/subtasks/{subtaskId}", taskHandler.DeleteSubtask).Methods("DELETE")
	protected.HandleFunc("/tags", taskHandler.ListTags).Methods("GET")
	protected.HandleFunc("/tags", taskHandler.CreateTag).Methods("POST")
	protected.HandleFunc("/tags/{id}", taskHandler.DeleteTag).Methods("DELETE")
	protected.HandleFunc("/tasks/{id}/tags/{tagId}", taskHandler.TagTask).Methods("POST")

	protected.HandleFunc("/habits", habitHandler.ListHabits).Methods("GET")
	protected.HandleFunc("/habits/progress", habitHandler.Progress).Methods("GET")
	protected.HandleFunc("/habits/checkins", habitHandler.ListCheckins).Methods("GET")
	protected.HandleFunc("/habits/checkins", habitHandler.CreateCheckin).Methods("POST")
	protected.HandleFunc("/habits/checkins/{id}", habitHandler.GetCheckin).Methods("GET")
	protected.HandleFunc("/habits/checkins/{id}", habitHandler.UpdateCheckin).Methods("PUT")
	protected.HandleFunc("/habits/checkins/{id}", habitHandler.DeleteCheckin).Methods("DELETE")
	protected.HandleFunc("/habits/{id}/checkin", habitHandler.CheckIn).Methods("POST")
	protected.HandleFunc("/habits/{id}/streaks", habitHandler.StreakHistory).Methods("GET")

	protected.HandleFunc("/focus/sessions", focusHandler.ListSessions).Methods("GET")
	protected.HandleFunc("/focus/sessions", focusHandler.StartSession).Methods("POST")
	protected.HandleFunc("/focus/sessions/{id}", focusHandler.UpdateSession).Methods("PUT")
	protected.HandleFunc("/focus/sessions/{id}", focusHandler.DeleteSession).Methods("DELETE")
	protected.HandleFunc("/focus/stats", focusHandler.GetStats).Methods("GET")

	protected.HandleFunc("/schedule/blocks", scheduleHandler.ListBlocks).Methods("GET")
	protected.HandleFunc("/schedule/blocks", scheduleHandler.CreateBlock).Methods("POST")
	protected.HandleFunc("/schedule/blocks/reorder", scheduleHandler.ReorderBlocks).Methods("PUT")
	protected.HandleFunc("/schedule/blocks/{id}", scheduleHandler.UpdateBlock).Methods("PUT")
	protected.HandleFunc("/schedule/blocks/{id}", scheduleHandler.DeleteBlock).Methods("DELETE")
	protected.HandleFunc("/schedule/weekly", scheduleHandler.WeeklySchedule).Methods("GET")
	protected.HandleFunc("/schedule/risks", scheduleHandler.DetectRisks).Methods("GET")

	protected.HandleFunc("/analytics/overview", analyticsHandler.GetOverview).Methods("GET")
	protected.HandleFunc("/analytics/trends", analyticsHandler.GetTrends).Methods("GET")
	protected.HandleFunc("/analytics/burndown", analyticsHandler.GetBurndown).Methods("GET")
	protected.HandleFunc("/analytics/time-allocation", analyticsHandler.GetTimeAllocation).Methods("GET")

	protected.HandleFunc("/notifications", notificationHandler.ListNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.UnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")

	protected.HandleFunc("/chatbot", chatbotHandler.SendMessage).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	reminderScheduler.Stop()
	notificationService.Stop()

	log.Println("Server shutdown complete")
}
