package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/camden-git/attendsysbackend/media"
	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/recognition"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/camden-git/attendsysbackend/services"
	"github.com/camden-git/attendsysbackend/utils"
	"github.com/camden-git/attendsysbackend/workers"
	"github.com/go-chi/chi/v5"
)

const maxEnrollmentPhotoBytes = 20 << 20

// EmployeeHandler manages enrollment and the employee roster. Enrollment
// accepts either a photo (encoded server-side) or a precomputed embedding.
type EmployeeHandler struct {
	Repo      repository.EmployeeRepositoryInterface
	Encoder   services.ImageEncoder // nil when the face models are not loaded
	Store     media.Store
	Processor *workers.EnrollmentProcessor
}

func NewEmployeeHandler(repo repository.EmployeeRepositoryInterface, encoder services.ImageEncoder, store media.Store, processor *workers.EnrollmentProcessor) *EmployeeHandler {
	return &EmployeeHandler{Repo: repo, Encoder: encoder, Store: store, Processor: processor}
}

type enrollJSONPayload struct {
	EmpCode    string    `json:"emp_code"`
	Name       string    `json:"name"`
	Department *string   `json:"department,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Embedding  []float32 `json:"embedding"`
	Model      string    `json:"model,omitempty"`
}

// Create enrolls a new employee. Multipart requests carry a "photo" file that
// is encoded into the reference embedding; JSON requests carry the embedding
// directly.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		h.createFromJSON(w, r)
		return
	}
	h.createFromPhoto(w, r)
}

func (h *EmployeeHandler) createFromJSON(w http.ResponseWriter, r *http.Request) {
	var payload enrollJSONPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "invalid request payload: "+err.Error())
		return
	}
	if payload.EmpCode == "" || payload.Name == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "emp_code and name are required")
		return
	}
	if len(payload.Embedding) == 0 {
		WriteAPIError(w, http.StatusBadRequest, "missing_embedding", "embedding is required for JSON enrollment")
		return
	}

	model := payload.Model
	if model == "" {
		model = "arcface"
	}
	employee := &models.Employee{
		EmpCode:        payload.EmpCode,
		Name:           payload.Name,
		Department:     payload.Department,
		Phone:          payload.Phone,
		EmbeddingModel: model,
	}
	employee.SetEmbedding(payload.Embedding)

	h.finishCreate(w, employee)
}

func (h *EmployeeHandler) createFromPhoto(w http.ResponseWriter, r *http.Request) {
	if h.Encoder == nil {
		WriteAPIError(w, http.StatusServiceUnavailable, "recognition_disabled", "face models are not loaded; enroll with a precomputed embedding")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxEnrollmentPhotoBytes)
	if err := r.ParseMultipartForm(maxEnrollmentPhotoBytes); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "failed to parse multipart form: "+err.Error())
		return
	}

	empCode := r.FormValue("emp_code")
	name := r.FormValue("name")
	if empCode == "" || name == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_fields", "emp_code and name are required")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "missing_photo", "photo file field is required")
		return
	}
	defer file.Close()

	if !utils.IsRasterImage(header.Filename) {
		WriteAPIError(w, http.StatusBadRequest, "unsupported_format", "photo must be a raster image")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "failed to read photo: "+err.Error())
		return
	}

	embedding, err := h.Encoder.EncodeImage(data)
	if err != nil {
		if errors.Is(err, recognition.ErrNoFace) {
			WriteAPIError(w, http.StatusUnprocessableEntity, "no_face", "no face detected in enrollment photo")
			return
		}
		WriteAPIError(w, http.StatusBadRequest, "invalid_image", err.Error())
		return
	}

	employee := &models.Employee{
		EmpCode:        empCode,
		Name:           name,
		Department:     optionalFormValue(r, "department"),
		Phone:          optionalFormValue(r, "phone"),
		EmbeddingModel: "arcface",
	}
	employee.SetEmbedding(embedding)

	relPath, fullPath, err := h.saveSnapshot(header.Filename, data)
	if err != nil {
		log.Printf("employee handler: failed to save enrollment snapshot: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "storage_error", "failed to save enrollment photo")
		return
	}
	employee.SnapshotPath = &relPath

	h.finishCreate(w, employee)
	if employee.ID != 0 {
		h.Processor.Enqueue(workers.EnrollmentJob{
			TaskType:     workers.TaskSnapshot,
			EmployeeID:   employee.ID,
			SnapshotPath: fullPath,
			RelativePath: relPath,
		})
	}
}

func (h *EmployeeHandler) finishCreate(w http.ResponseWriter, employee *models.Employee) {
	if err := h.Repo.Create(employee); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmpCode) {
			WriteAPIError(w, http.StatusConflict, "duplicate_emp_code", "employee code already exists")
			return
		}
		log.Printf("employee handler: failed to create employee: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to create employee")
		return
	}

	h.Processor.Enqueue(workers.EnrollmentJob{TaskType: workers.TaskRebuildIndex})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(employee)
}

func (h *EmployeeHandler) saveSnapshot(originalName string, data []byte) (relPath, fullPath string, err error) {
	filename, err := utils.SnapshotFilename(originalName)
	if err != nil {
		return "", "", err
	}
	relPath, err = h.Store.Save(media.AssetTypeSnapshot, filename, bytes.NewReader(data))
	if err != nil {
		return "", "", err
	}
	fullPath, err = h.Store.GetFullPath(relPath)
	if err != nil {
		return "", "", err
	}
	return relPath, fullPath, nil
}

// List returns all employees in natural employee-code order.
func (h *EmployeeHandler) List(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Repo.ListAll()
	if err != nil {
		log.Printf("employee handler: failed to list employees: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to list employees")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(employees)
}

func (h *EmployeeHandler) Get(w http.ResponseWriter, r *http.Request) {
	employee, ok := h.employeeFromURL(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(employee)
}

type employeeUpdatePayload struct {
	EmpCode    *string `json:"emp_code,omitempty"`
	Name       *string `json:"name,omitempty"`
	Department *string `json:"department,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// Update edits roster fields. The reference embedding is only replaced
// through UpdatePhoto.
func (h *EmployeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	employee, ok := h.employeeFromURL(w, r)
	if !ok {
		return
	}

	var payload employeeUpdatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_payload", "invalid request payload: "+err.Error())
		return
	}

	if payload.EmpCode != nil {
		employee.EmpCode = *payload.EmpCode
	}
	if payload.Name != nil {
		employee.Name = *payload.Name
	}
	if payload.Department != nil {
		employee.Department = payload.Department
	}
	if payload.Phone != nil {
		employee.Phone = payload.Phone
	}

	if err := h.Repo.Update(employee); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmpCode) {
			WriteAPIError(w, http.StatusConflict, "duplicate_emp_code", "employee code already exists")
			return
		}
		log.Printf("employee handler: failed to update employee %d: %v", employee.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to update employee")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(employee)
}

// UpdatePhoto re-enrolls an employee from a fresh photo, replacing the
// reference embedding and snapshot.
func (h *EmployeeHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	if h.Encoder == nil {
		WriteAPIError(w, http.StatusServiceUnavailable, "recognition_disabled", "face models are not loaded")
		return
	}

	employee, ok := h.employeeFromURL(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxEnrollmentPhotoBytes)
	if err := r.ParseMultipartForm(maxEnrollmentPhotoBytes); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "failed to parse multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "missing_photo", "photo file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_upload", "failed to read photo: "+err.Error())
		return
	}

	embedding, err := h.Encoder.EncodeImage(data)
	if err != nil {
		if errors.Is(err, recognition.ErrNoFace) {
			WriteAPIError(w, http.StatusUnprocessableEntity, "no_face", "no face detected in photo")
			return
		}
		WriteAPIError(w, http.StatusBadRequest, "invalid_image", err.Error())
		return
	}

	if err := h.Repo.UpdateEmbedding(employee.ID, embedding, employee.EmbeddingModel); err != nil {
		log.Printf("employee handler: failed to update embedding for employee %d: %v", employee.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to update embedding")
		return
	}

	h.removeStoredAssets(employee)

	relPath, fullPath, err := h.saveSnapshot(header.Filename, data)
	if err != nil {
		log.Printf("employee handler: failed to save snapshot for employee %d: %v", employee.ID, err)
	} else {
		if err := h.Repo.UpdateSnapshot(employee.ID, &relPath, nil, nil); err != nil {
			log.Printf("employee handler: failed to record snapshot for employee %d: %v", employee.ID, err)
		}
		h.Processor.Enqueue(workers.EnrollmentJob{
			TaskType:     workers.TaskSnapshot,
			EmployeeID:   employee.ID,
			SnapshotPath: fullPath,
			RelativePath: relPath,
		})
	}

	h.Processor.Enqueue(workers.EnrollmentJob{TaskType: workers.TaskRebuildIndex})

	updated, err := h.Repo.GetByID(employee.ID)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to reload employee")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// Delete removes the employee, their stored media, and, via cascade, their
// ledger and leave rows.
func (h *EmployeeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	employee, ok := h.employeeFromURL(w, r)
	if !ok {
		return
	}

	if err := h.Repo.Delete(employee.ID); err != nil {
		log.Printf("employee handler: failed to delete employee %d: %v", employee.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to delete employee")
		return
	}

	h.removeStoredAssets(employee)
	h.Processor.Enqueue(workers.EnrollmentJob{TaskType: workers.TaskRebuildIndex})

	w.WriteHeader(http.StatusNoContent)
}

func (h *EmployeeHandler) removeStoredAssets(employee *models.Employee) {
	for _, rel := range []*string{employee.SnapshotPath, employee.ThumbnailPath} {
		if rel == nil || *rel == "" {
			continue
		}
		if err := h.Store.Delete(*rel); err != nil {
			log.Printf("employee handler: failed to delete asset %s: %v", *rel, err)
		}
	}
}

func (h *EmployeeHandler) employeeFromURL(w http.ResponseWriter, r *http.Request) (*models.Employee, bool) {
	idStr := chi.URLParam(r, "employeeID")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "invalid employee ID")
		return nil, false
	}

	employee, err := h.Repo.GetByID(uint(id))
	if err != nil {
		WriteAPIError(w, http.StatusNotFound, "not_found", "employee not found")
		return nil, false
	}
	return employee, true
}

func optionalFormValue(r *http.Request, key string) *string {
	v := r.FormValue(key)
	if v == "" {
		return nil
	}
	return &v
}
