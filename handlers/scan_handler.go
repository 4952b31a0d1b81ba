package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/camden-git/attendsysbackend/services"
)

// maxScanImageBytes caps a single kiosk capture upload.
const maxScanImageBytes = 10 << 20

// ScanHandler exposes the kiosk scan pipeline. It is the only unauthenticated
// write surface; kiosks run on a trusted network segment.
type ScanHandler struct {
	Scans *services.ScanService
}

func NewScanHandler(scans *services.ScanService) *ScanHandler {
	return &ScanHandler{Scans: scans}
}

type probePayload struct {
	Embedding []float32 `json:"embedding"`
	Tolerance *float64  `json:"tolerance,omitempty"`
}

// ScanImage accepts a multipart capture under the "image" field, encodes the
// dominant face and evaluates the attempt. Policy rejections come back as
// 200 responses with the outcome kind; only transport and image failures map
// to error statuses.
func (h *ScanHandler) ScanImage(w http.ResponseWriter, r *http.Request) {
	if !h.Scans.HasEncoder() {
		WriteAPIError(w, http.StatusServiceUnavailable, "recognition_disabled", "face models are not loaded; use the probe endpoint")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxScanImageBytes)
	if err := r.ParseMultipartForm(maxScanImageBytes); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "failed to parse multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "missing_image", "image file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "failed to read image: "+err.Error())
		return
	}

	outcome, err := h.Scans.ScanImage(data, time.Now())
	if err != nil {
		if errors.Is(err, recognition.ErrNoFace) {
			WriteAPIError(w, http.StatusUnprocessableEntity, "no_face", "no face detected in image")
			return
		}
		log.Printf("scan handler: image scan failed: %v", err)
		WriteAPIError(w, http.StatusBadRequest, "invalid_image", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}

// ScanProbe accepts a precomputed embedding from kiosks that run the face
// models locally and only need the decision.
func (h *ScanHandler) ScanProbe(w http.ResponseWriter, r *http.Request) {
	var payload probePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "invalid request payload: "+err.Error())
		return
	}
	if len(payload.Embedding) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "missing_embedding", "embedding is required")
		return
	}

	var outcome attendance.Outcome
	if payload.Tolerance != nil {
		// same bound the configured default obeys; above 1 every probe
		// would match something
		if *payload.Tolerance <= 0 || *payload.Tolerance > 1 {
			WriteAPIError(w, http.StatusBadRequest, "invalid_tolerance", "tolerance must be in (0, 1]")
			return
		}
		outcome = h.Scans.ScanProbeWithTolerance(payload.Embedding, *payload.Tolerance, time.Now())
	} else {
		outcome = h.Scans.ScanProbe(payload.Embedding, time.Now())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(outcome)
}
