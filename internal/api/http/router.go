// Package http wires the reservation service into gorilla/mux routes.
// Public routes serve customers; internal routes are called by sibling
// services with a signed service token.
package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"carrental-backend/internal/security"
)

func NewRouter(reservations *ReservationHandler, tokens security.TokenManager) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware)

	public := r.PathPrefix("/api/v1/reservations").Subrouter()
	public.HandleFunc("", reservations.Create).Methods(http.MethodPost)
	public.HandleFunc("", reservations.List).Methods(http.MethodGet)
	public.HandleFunc("/price", reservations.Price).Methods(http.MethodGet)
	public.HandleFunc("/upcoming", reservations.Upcoming).Methods(http.MethodGet)
	public.HandleFunc("/{id:[0-9]+}", reservations.Get).Methods(http.MethodGet)
	public.HandleFunc("/{id:[0-9]+}", reservations.Update).Methods(http.MethodPatch)
	public.HandleFunc("/{id:[0-9]+}/confirm", reservations.Confirm).Methods(http.MethodPost)
	public.HandleFunc("/{id:[0-9]+}/cancel", reservations.Cancel).Methods(http.MethodPost)

	// Pickup and return are desk operations performed by branch systems.
	internal := r.PathPrefix("/api/internal/v1/reservations").Subrouter()
	internal.Use(ServiceAuthMiddleware(tokens))
	internal.HandleFunc("", reservations.List).Methods(http.MethodGet)
	internal.HandleFunc("/{id:[0-9]+}", reservations.Get).Methods(http.MethodGet)
	internal.HandleFunc("/{id:[0-9]+}/start", reservations.Start).Methods(http.MethodPost)
	internal.HandleFunc("/{id:[0-9]+}/complete", reservations.Complete).Methods(http.MethodPost)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return r
}
