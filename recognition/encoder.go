package recognition

import (
	"image"
	"log"
	"math"
	"os"

	"gocv.io/x/gocv"
)

// Encoder extracts a fixed-length, L2-normalized face embedding from a face
// region using an ArcFace or FaceNet model.
type Encoder struct {
	Net       gocv.Net
	Enabled   bool
	ModelName string

	// configuration parameters
	InputSizeW  int
	InputSizeH  int
	ScaleFactor float64
	MeanVal     gocv.Scalar
	StdVal      gocv.Scalar
}

// NewEncoder loads a face recognition model (ArcFace, FaceNet, etc.)
func NewEncoder(modelPath string, modelName string) *Encoder {
	if modelPath == "" {
		log.Println("recognition: model path is empty, disabling face encoding")
		return &Encoder{Enabled: false}
	}

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		log.Printf("recognition: ERROR - Model file does not exist: %s", modelPath)
		return &Encoder{Enabled: false}
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		log.Printf("recognition: ERROR - ReadNet returned an empty network for %s. Check file path and integrity.", modelName)
		return &Encoder{Enabled: false}
	}

	log.Printf("recognition: successfully loaded %s model", modelName)

	cudaBackendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
	cudaTargetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)

	if cudaBackendErr == nil && cudaTargetErr == nil {
		log.Printf("recognition: Set backend/target to CUDA for %s", modelName)
	} else {
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		log.Printf("recognition: Set backend/target to CPU (Default) for %s", modelName)
	}

	var inputSizeW, inputSizeH int
	switch modelName {
	case "facenet":
		inputSizeW, inputSizeH = 160, 160
	default: // arcface
		inputSizeW, inputSizeH = 112, 112
	}

	return &Encoder{
		Net:         net,
		Enabled:     true,
		ModelName:   modelName,
		InputSizeW:  inputSizeW,
		InputSizeH:  inputSizeH,
		ScaleFactor: 1.0 / 255.0,
		MeanVal:     gocv.NewScalar(0, 0, 0, 0),
		StdVal:      gocv.NewScalar(128.0, 128.0, 128.0, 0),
	}
}

func (e *Encoder) Close() {
	if e != nil && e.Enabled {
		e.Net.Close()
		log.Printf("recognition: closed %s network", e.ModelName)
		e.Enabled = false
	}
}

// ExtractEmbedding extracts a normalized embedding from a face region
func (e *Encoder) ExtractEmbedding(faceRegion gocv.Mat) []float32 {
	if e == nil || !e.Enabled || faceRegion.Empty() {
		return nil
	}

	processed := e.preprocessFace(faceRegion)
	if processed.Empty() {
		log.Printf("recognition: ERROR - preprocessing returned empty matrix")
		return nil
	}
	defer processed.Close()

	blob := gocv.BlobFromImage(processed, e.ScaleFactor, image.Pt(e.InputSizeW, e.InputSizeH), e.MeanVal, false, false)
	defer blob.Close()

	e.Net.SetInput(blob, "")
	output := e.Net.Forward("")
	defer output.Close()

	embedding := extractVector(output)
	if len(embedding) == 0 {
		return nil
	}
	return normalize(embedding)
}

// preprocessFace prepares a face region for embedding extraction
func (e *Encoder) preprocessFace(faceRegion gocv.Mat) gocv.Mat {
	if faceRegion.Empty() {
		return gocv.Mat{}
	}

	// the models expect RGB input while OpenCV decodes BGR
	var processed gocv.Mat
	if faceRegion.Channels() == 3 {
		processed = gocv.NewMat()
		gocv.CvtColor(faceRegion, &processed, gocv.ColorBGRToRGB)
	} else {
		processed = faceRegion.Clone()
	}

	aligned := gocv.NewMat()
	gocv.Resize(processed, &aligned, image.Pt(e.InputSizeW, e.InputSizeH), 0, 0, gocv.InterpolationLinear)

	normalized := gocv.NewMat()
	aligned.ConvertTo(&normalized, gocv.MatTypeCV32F)
	aligned.Close()
	processed.Close()
	return normalized
}

// extractVector flattens the model output into an embedding vector
func extractVector(output gocv.Mat) []float32 {
	sizes := output.Size()
	if len(sizes) == 0 {
		return nil
	}

	flattened := output.Reshape(1, 1)
	defer flattened.Close()

	embeddingSize := flattened.Cols()
	embedding := make([]float32, embeddingSize)
	for i := 0; i < embeddingSize; i++ {
		embedding[i] = flattened.GetFloatAt(0, i)
	}
	return embedding
}

// normalize scales the embedding vector to unit length (L2 normalization)
func normalize(embedding []float32) []float32 {
	var norm float32
	for _, val := range embedding {
		norm += val * val
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm == 0 {
		return embedding
	}

	normalized := make([]float32, len(embedding))
	for i, val := range embedding {
		normalized[i] = val / norm
	}
	return normalized
}
