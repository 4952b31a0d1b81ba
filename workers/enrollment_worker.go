package workers

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/config"
	"github.com/camden-git/attendsysbackend/repository"
	"github.com/camden-git/attendsysbackend/utils"
)

// TaskType constants
const (
	TaskSnapshot     = "snapshot"
	TaskRebuildIndex = "rebuild_index"
)

// EnrollmentJob describes post-enrollment work: thumbnail + EXIF for a saved
// snapshot, or a matcher index rebuild after enrollment changes. Nothing on
// the scan decision path waits for these.
type EnrollmentJob struct {
	TaskType     string
	EmployeeID   uint
	SnapshotPath string // absolute path of the saved enrollment photo
	RelativePath string // store-relative path recorded on the employee row
}

type EnrollmentProcessor struct {
	JobQueue     chan EnrollmentJob
	Config       config.Config
	EmployeeRepo repository.EmployeeRepositoryInterface
	Index        *attendance.Index
	Wg           sync.WaitGroup
	StopChan     chan struct{}
}

func NewEnrollmentProcessor(cfg config.Config, employeeRepo repository.EmployeeRepositoryInterface, index *attendance.Index, queueSize, numWorkers int) *EnrollmentProcessor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize <= 0 {
		queueSize = 50
	}
	proc := &EnrollmentProcessor{
		JobQueue:     make(chan EnrollmentJob, queueSize),
		Config:       cfg,
		EmployeeRepo: employeeRepo,
		Index:        index,
		StopChan:     make(chan struct{}),
	}
	proc.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go proc.worker(i)
	}
	log.Printf("Started %d enrollment worker(s) with queue size %d", numWorkers, queueSize)
	return proc
}

func (ep *EnrollmentProcessor) worker(id int) {
	defer ep.Wg.Done()

	log.Printf("Enrollment worker %d started", id)
	for {
		select {
		case job, ok := <-ep.JobQueue:
			if !ok {
				log.Printf("Enrollment worker %d stopping: Job queue closed", id)
				return
			}

			switch job.TaskType {
			case TaskSnapshot:
				ep.processSnapshotTask(id, job)
			case TaskRebuildIndex:
				ep.processRebuildTask(id)
			default:
				log.Printf("Worker %d: ERROR unknown task type '%s'", id, job.TaskType)
			}

		case <-ep.StopChan:
			log.Printf("Enrollment worker %d stopping: Stop signal received", id)
			return
		}
	}
}

// processSnapshotTask generates the admin-UI thumbnail and pulls the EXIF
// capture time off the enrollment photo, then records both on the employee.
func (ep *EnrollmentProcessor) processSnapshotTask(id int, job EnrollmentJob) {
	thumbPath, err := utils.GenerateThumbnail(job.SnapshotPath, ep.Config.ThumbnailsPath,
		ep.Config.ThumbnailMaxSize, ep.Config.ThumbnailMaxSize)
	var relThumb *string
	if err != nil {
		log.Printf("Worker %d: ERROR generating thumbnail for employee %d: %v", id, job.EmployeeID, err)
	} else {
		rel := filepath.ToSlash(filepath.Join(filepath.Base(ep.Config.ThumbnailsPath), filepath.Base(thumbPath)))
		relThumb = &rel
	}

	takenAt, err := utils.GetPhotoTakenAt(job.SnapshotPath)
	if err != nil {
		log.Printf("Worker %d: ERROR reading EXIF for employee %d: %v", id, job.EmployeeID, err)
	}

	relSnapshot := job.RelativePath
	if err := ep.EmployeeRepo.UpdateSnapshot(job.EmployeeID, &relSnapshot, relThumb, takenAt); err != nil {
		log.Printf("Worker %d: ERROR saving snapshot info for employee %d: %v", id, job.EmployeeID, err)
	}
}

// processRebuildTask refreshes the ANN matcher index from the store.
func (ep *EnrollmentProcessor) processRebuildTask(id int) {
	if ep.Index == nil {
		return
	}
	entries, err := ep.EmployeeRepo.ListEmbeddings()
	if err != nil {
		log.Printf("Worker %d: ERROR listing embeddings for index rebuild: %v", id, err)
		return
	}
	ep.Index.Rebuild(entries)
	log.Printf("Worker %d: rebuilt matcher index with %d entries", id, len(entries))
}

// Enqueue adds a job without blocking; a full queue drops the job with a
// warning since every task is re-derivable from the store.
func (ep *EnrollmentProcessor) Enqueue(job EnrollmentJob) {
	select {
	case ep.JobQueue <- job:
	default:
		log.Printf("WARNING: enrollment job queue full, dropping %s job for employee %d", job.TaskType, job.EmployeeID)
	}
}

// Stop signals workers to stop and waits for them to finish
func (ep *EnrollmentProcessor) Stop() {
	close(ep.StopChan)
	ep.Wg.Wait()
	log.Println("All enrollment workers stopped")
}
