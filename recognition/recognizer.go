package recognition

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/camden-git/attendsysbackend/config"
)

// ErrNoFace is returned when the supplied image holds no detectable face.
var ErrNoFace = errors.New("recognition: no face detected in image")

// Recognizer turns a captured still image into a probe embedding: detect the
// largest face, crop it, run the encoder. It is the "encoding capability"
// the scan pipeline depends on; when the model files are missing the whole
// image path is unavailable, which callers treat as a startup configuration
// error rather than a per-scan failure.
type Recognizer struct {
	detector *FaceDetector
	encoder  *Encoder
}

// NewRecognizer loads the detection and encoding networks from the
// configured paths. It returns an error when either network failed to load.
func NewRecognizer(cfg config.Config) (*Recognizer, error) {
	detector := NewFaceDetector(cfg.FaceDNNNetConfigPath, cfg.FaceDNNNetModelPath)
	encoder := NewEncoder(cfg.FaceRecognitionModelPath, cfg.FaceRecognitionModelName)

	if !detector.Enabled || !encoder.Enabled {
		detector.Close()
		encoder.Close()
		return nil, fmt.Errorf("recognition: face models unavailable (detector enabled=%v, encoder enabled=%v)",
			detector.Enabled, encoder.Enabled)
	}

	return &Recognizer{detector: detector, encoder: encoder}, nil
}

// Close releases both networks.
func (r *Recognizer) Close() {
	if r == nil {
		return
	}
	r.detector.Close()
	r.encoder.Close()
}

// EncodeImage decodes the image bytes and returns the embedding of the
// largest detected face, or ErrNoFace.
func (r *Recognizer) EncodeImage(data []byte) ([]float32, error) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("recognition: failed to decode image: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("recognition: decoded image is empty")
	}

	face := LargestFace(r.detector.DetectFaces(img))
	if face == nil {
		return nil, ErrNoFace
	}

	rect := image.Rect(face.X, face.Y, face.X+face.W, face.Y+face.H)
	region := img.Region(rect)
	defer region.Close()

	embedding := r.encoder.ExtractEmbedding(region)
	if len(embedding) == 0 {
		return nil, fmt.Errorf("recognition: encoder produced no embedding")
	}
	return embedding, nil
}
