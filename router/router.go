package router

import (
	_ "ben-bank-api/docs"
	"ben-bank-api/handler"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// NewRouter registers every route. Nil handlers leave their routes out so
// tests can mount only what they need.
func NewRouter(userHandler *handler.UserHandler, accountHandler *handler.AccountHandler, tokens handler.TokenParser, authLimit func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	if authLimit == nil {
		authLimit = func(next http.Handler) http.Handler { return next }
	}

	if userHandler != nil {
		mux.Handle("POST /api/auth/register", authLimit(handler.ErrorHandlingMiddleware(userHandler.Register)))
		mux.Handle("POST /api/auth/verify-email", authLimit(handler.ErrorHandlingMiddleware(userHandler.VerifyEmail)))
		mux.Handle("POST /api/auth/login", authLimit(handler.ErrorHandlingMiddleware(userHandler.Login)))
		mux.Handle("POST /api/auth/forgot-password", authLimit(handler.ErrorHandlingMiddleware(userHandler.ForgotPassword)))
		mux.Handle("POST /api/auth/reset-password", authLimit(handler.ErrorHandlingMiddleware(userHandler.ResetPassword)))
	}

	if accountHandler != nil && tokens != nil {
		protected := handler.AuthMiddleware(tokens)
		mux.Handle("POST /api/accounts", protected(handler.ErrorHandlingMiddleware(accountHandler.CreateAccount)))
		mux.Handle("POST /api/accounts/{accountId}/deposit", protected(handler.ErrorHandlingMiddleware(accountHandler.Deposit)))
		mux.Handle("POST /api/accounts/{accountId}/withdrawal", protected(handler.ErrorHandlingMiddleware(accountHandler.Withdraw)))
		mux.Handle("POST /api/accounts/{accountId}/transfer", protected(handler.ErrorHandlingMiddleware(accountHandler.Transfer)))
		mux.Handle("GET /api/accounts/{accountId}/balance", protected(handler.ErrorHandlingMiddleware(accountHandler.GetBalance)))
		mux.Handle("GET /api/accounts/{accountId}/history", protected(handler.ErrorHandlingMiddleware(accountHandler.GetHistory)))
	}

	return mux
}
