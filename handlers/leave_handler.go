package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/camden-git/attendsysbackend/services"
	"github.com/go-chi/chi/v5"
)

// LeaveHandler manages the leave calendar consulted by the decision engine.
type LeaveHandler struct {
	Leaves    repository.LeaveRepositoryInterface
	Employees repository.EmployeeRepositoryInterface
	Reports   *services.ReportService
}

func NewLeaveHandler(leaves repository.LeaveRepositoryInterface, employees repository.EmployeeRepositoryInterface, reports *services.ReportService) *LeaveHandler {
	return &LeaveHandler{Leaves: leaves, Employees: employees, Reports: reports}
}

type leavePayload struct {
	EmployeeID uint   `json:"employee_id"`
	Date       string `json:"date"` // YYYY-MM-DD
	Reason     string `json:"reason,omitempty"`
}

// Create registers a leave day. Scans for that employee on that day resolve
// to on_leave regardless of ledger state.
func (h *LeaveHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload leavePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "invalid request payload: "+err.Error())
		return
	}
	if payload.EmployeeID == 0 || payload.Date == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "employee_id and date are required")
		return
	}
	if _, err := time.Parse(attendance.DayLayout, payload.Date); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}
	if _, err := h.Employees.GetByID(payload.EmployeeID); err != nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "employee not found")
		return
	}

	entry := &models.LeaveEntry{
		EmployeeID: payload.EmployeeID,
		Date:       payload.Date,
		Reason:     payload.Reason,
	}
	if err := h.Leaves.Create(entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateLeave) {
			WriteAPIError(w, http.StatusConflict, "duplicate_leave", "leave entry already exists for that employee and date")
			return
		}
		log.Printf("leave handler: failed to create leave entry: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to create leave entry")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

// List returns leave entries joined to employees, optionally bounded by
// ?start= and ?end= (YYYY-MM-DD, inclusive).
func (h *LeaveHandler) List(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRangeParams(w, r)
	if !ok {
		return
	}

	records, err := h.Reports.LeaveRecords(start, end)
	if err != nil {
		log.Printf("leave handler: failed to list leave entries: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to list leave entries")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// ListByEmployee returns one employee's leave entries, newest date first.
func (h *LeaveHandler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "employeeID")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "invalid employee ID")
		return
	}

	entries, err := h.Leaves.ListByEmployee(uint(id))
	if err != nil {
		log.Printf("leave handler: failed to list leave for employee %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to list leave entries")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// Delete removes a leave entry by ID.
func (h *LeaveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "leaveID")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "invalid leave entry ID")
		return
	}

	if err := h.Leaves.Delete(uint(id)); err != nil {
		log.Printf("leave handler: failed to delete leave entry %d: %v", id, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to delete leave entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// dateRangeParams parses optional ?start= and ?end= query bounds, rejecting
// malformed dates.
func dateRangeParams(w http.ResponseWriter, r *http.Request) (start, end *string, ok bool) {
	for _, p := range []struct {
		name string
		dest **string
	}{
		{"start", &start},
		{"end", &end},
	} {
		v := r.URL.Query().Get(p.name)
		if v == "" {
			continue
		}
		if _, err := time.Parse(attendance.DayLayout, v); err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_date", p.name+" must be YYYY-MM-DD")
			return nil, nil, false
		}
		*p.dest = &v
	}
	return start, end, true
}
