package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"carrental-backend/internal/domain"
	"carrental-backend/internal/service"
)

const dateLayout = "2006-01-02"

type createReservationRequest struct {
	CarID            int64  `json:"car_id"`
	CustomerEmail    string `json:"customer_email"`
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone"`
	PickupBranchCode string `json:"pickup_branch_code"`
	ReturnBranchCode string `json:"return_branch_code"`
	PickupDate       string `json:"pickup_date"`
	ReturnDate       string `json:"return_date"`
	Notes            string `json:"notes"`
}

type updateReservationRequest struct {
	PickupDate *string `json:"pickup_date"`
	ReturnDate *string `json:"return_date"`
	Notes      *string `json:"notes"`
}

type reservationResponse struct {
	ID               int64  `json:"id"`
	ConfirmationCode string `json:"confirmation_code"`
	CarID            int64  `json:"car_id"`
	CustomerEmail    string `json:"customer_email"`
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone,omitempty"`
	PickupBranchCode string `json:"pickup_branch_code"`
	ReturnBranchCode string `json:"return_branch_code"`
	PickupDate       string `json:"pickup_date"`
	ReturnDate       string `json:"return_date"`
	Status           string `json:"status"`
	TotalPriceCents  int64  `json:"total_price_cents"`
	DailyRateCents   int64  `json:"daily_rate_cents"`
	Notes            string `json:"notes,omitempty"`
	ExpiresAt        string `json:"expires_at,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	Version          int64  `json:"version"`
}

type reservationListResponse struct {
	Reservations []reservationResponse `json:"reservations"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
}

func toReservationResponse(res *domain.Reservation) reservationResponse {
	out := reservationResponse{
		ID:               res.ID,
		ConfirmationCode: res.ConfirmationCode.String(),
		CarID:            res.CarID,
		CustomerEmail:    res.CustomerEmail,
		CustomerName:     res.CustomerName,
		CustomerPhone:    res.CustomerPhone,
		PickupBranchCode: res.PickupBranchCode,
		ReturnBranchCode: res.ReturnBranchCode,
		PickupDate:       res.PickupDate.Format(dateLayout),
		ReturnDate:       res.ReturnDate.Format(dateLayout),
		Status:           string(res.Status),
		TotalPriceCents:  res.TotalPriceCents,
		DailyRateCents:   res.DailyRateCents,
		Notes:            res.Notes,
		CreatedAt:        res.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        res.UpdatedAt.UTC().Format(time.RFC3339),
		Version:          res.Version,
	}
	if res.ExpiresAt != nil {
		out.ExpiresAt = res.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return out
}

// ReservationHandler exposes the reservation service over HTTP.
type ReservationHandler struct {
	reservations service.ReservationService
}

func NewReservationHandler(reservations service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.Validationf("invalid request body: %v", err))
		return
	}

	pickup, err := parseDate("pickup_date", req.PickupDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ret, err := parseDate("return_date", req.ReturnDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if req.CarID <= 0 {
		writeError(w, r, domain.Validationf("car_id is required"))
		return
	}
	if req.CustomerEmail == "" || req.CustomerName == "" {
		writeError(w, r, domain.Validationf("customer_email and customer_name are required"))
		return
	}
	if req.PickupBranchCode == "" || req.ReturnBranchCode == "" {
		writeError(w, r, domain.Validationf("pickup_branch_code and return_branch_code are required"))
		return
	}

	res, err := h.reservations.Create(r.Context(), service.CreateReservationInput{
		CarID:            req.CarID,
		CustomerEmail:    req.CustomerEmail,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		PickupBranchCode: req.PickupBranchCode,
		ReturnBranchCode: req.ReturnBranchCode,
		PickupDate:       pickup,
		ReturnDate:       ret,
		Notes:            req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationResponse(res))
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.reservations.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, domain.Validationf("invalid request body: %v", err))
		return
	}

	var in service.UpdateReservationInput
	if req.PickupDate != nil {
		d, err := parseDate("pickup_date", *req.PickupDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.PickupDate = &d
	}
	if req.ReturnDate != nil {
		d, err := parseDate("return_date", *req.ReturnDate)
		if err != nil {
			writeError(w, r, err)
			return
		}
		in.ReturnDate = &d
	}
	in.Notes = req.Notes

	res, err := h.reservations.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(res))
}

// transition wraps the four lifecycle endpoints, which differ only in the
// service call they make.
func (h *ReservationHandler) transition(
	fn func(r *http.Request, id int64) (*domain.Reservation, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		res, err := fn(r, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toReservationResponse(res))
	}
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, id int64) (*domain.Reservation, error) {
		return h.reservations.Confirm(r.Context(), id)
	})(w, r)
}

func (h *ReservationHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, id int64) (*domain.Reservation, error) {
		return h.reservations.Start(r.Context(), id)
	})(w, r)
}

func (h *ReservationHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, id int64) (*domain.Reservation, error) {
		return h.reservations.Complete(r.Context(), id)
	})(w, r)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(func(r *http.Request, id int64) (*domain.Reservation, error) {
		return h.reservations.Cancel(r.Context(), id)
	})(w, r)
}

// List serves customer and status queries:
//
//	GET /api/v1/reservations?email=...&page=1&page_size=20
//	GET /api/v1/reservations?status=CONFIRMED&page=1&page_size=20
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, pageSize := pagination(q.Get("page"), q.Get("page_size"))

	var (
		items []domain.Reservation
		total int
		err   error
	)
	switch {
	case q.Get("email") != "":
		items, total, err = h.reservations.ListByCustomer(r.Context(), q.Get("email"), page, pageSize)
	case q.Get("status") != "":
		var status domain.ReservationStatus
		status, err = domain.ParseReservationStatus(q.Get("status"))
		if err == nil {
			items, total, err = h.reservations.ListByStatus(r.Context(), status, page, pageSize)
		}
	default:
		err = domain.Validationf("either email or status query parameter is required")
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := reservationListResponse{
		Reservations: make([]reservationResponse, 0, len(items)),
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
	}
	for i := range items {
		out.Reservations = append(out.Reservations, toReservationResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Upcoming serves GET /api/v1/reservations/upcoming?email=...
func (h *ReservationHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeError(w, r, domain.Validationf("email query parameter is required"))
		return
	}
	items, err := h.reservations.ListUpcoming(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]reservationResponse, 0, len(items))
	for i := range items {
		out = append(out, toReservationResponse(&items[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Price serves GET /api/v1/reservations/price?car_id=...&pickup_date=...&return_date=...
func (h *ReservationHandler) Price(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	carID, err := strconv.ParseInt(q.Get("car_id"), 10, 64)
	if err != nil || carID <= 0 {
		writeError(w, r, domain.Validationf("car_id query parameter is required"))
		return
	}
	pickup, err := parseDate("pickup_date", q.Get("pickup_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	ret, err := parseDate("return_date", q.Get("return_date"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	quote, err := h.reservations.QuoteForCar(r.Context(), carID, pickup, ret)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func pathID(r *http.Request) (int64, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Validationf("invalid reservation id: %q", raw)
	}
	return id, nil
}

func parseDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, domain.Validationf("%s is required", field)
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, domain.Validationf("%s must be a date in YYYY-MM-DD format", field)
	}
	return d, nil
}

func pagination(pageRaw, sizeRaw string) (page, pageSize int) {
	page, _ = strconv.Atoi(pageRaw)
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(sizeRaw)
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
