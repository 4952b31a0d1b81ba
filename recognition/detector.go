package recognition

import (
	"image"
	"log"

	"gocv.io/x/gocv"
)

// Detection is one detected face box with its confidence.
type Detection struct {
	X          int
	Y          int
	W          int
	H          int
	Confidence float32
}

// FaceDetector locates faces in a captured frame using an SSD DNN model.
type FaceDetector struct {
	Net     gocv.Net
	Enabled bool

	// configuration parameters used during detection
	InputSizeW    int
	InputSizeH    int
	ScaleFactor   float64
	MeanVal       gocv.Scalar
	ConfThreshold float32
}

// NewFaceDetector loads the DNN face detection model
func NewFaceDetector(configPath, modelPath string) *FaceDetector {
	if configPath == "" || modelPath == "" {
		log.Println("detection: config or model path is empty, disabling face detector")
		return &FaceDetector{Enabled: false}
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		log.Printf("detection: ERROR loading network model: config=%s, model=%s", configPath, modelPath)
		return &FaceDetector{Enabled: false}
	}
	log.Printf("detection: successfully loaded face detection model")

	cudaBackendErr := net.SetPreferableBackend(gocv.NetBackendCUDA)
	cudaTargetErr := net.SetPreferableTarget(gocv.NetTargetCUDA)

	if cudaBackendErr == nil && cudaTargetErr == nil {
		log.Println("detection: Set backend/target to CUDA")
	} else {
		if cudaBackendErr != nil {
			log.Printf("detection: CUDA Backend not available: %v. Using default backend.", cudaBackendErr)
		}
		if cudaTargetErr != nil {
			log.Printf("detection: CUDA Target not available: %v. Using default target.", cudaTargetErr)
		}

		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
		log.Println("detection: Set backend/target to CPU (Default)")
	}

	return &FaceDetector{
		Net:           net,
		Enabled:       true,
		InputSizeW:    300,
		InputSizeH:    300,
		ScaleFactor:   1.0,
		MeanVal:       gocv.NewScalar(104.0, 177.0, 123.0, 0),
		ConfThreshold: 0.5,
	}
}

func (d *FaceDetector) Close() {
	if d != nil && d.Enabled {
		d.Net.Close()
		log.Println("detection: closed network")
		d.Enabled = false
	}
}

// DetectFaces runs face detection on the frame and returns every box above
// the confidence threshold.
func (d *FaceDetector) DetectFaces(img gocv.Mat) []Detection {
	if d == nil || !d.Enabled || img.Empty() {
		return nil
	}

	imgHeight := float32(img.Rows())
	imgWidth := float32(img.Cols())

	blob := gocv.BlobFromImage(img, d.ScaleFactor, image.Pt(d.InputSizeW, d.InputSizeH), d.MeanVal, false, false)
	defer blob.Close()

	d.Net.SetInput(blob, "")
	detectionsMat := d.Net.Forward("")
	defer detectionsMat.Close()

	results := []Detection{}

	sizes := detectionsMat.Size()
	if len(sizes) < 3 {
		log.Printf("detection: unexpected output matrix dimensions: %v", sizes)
		return results
	}

	numDetections := sizes[2]
	if numDetections == 0 {
		return results
	}

	// reshape the Mat to 2D: [N, 7] for easier access with GetFloatAt(row, col)
	detections2D := detectionsMat.Reshape(1, numDetections*sizes[3])
	detectionsData := detections2D.Reshape(1, numDetections)
	defer detectionsData.Close()

	for i := 0; i < numDetections; i++ {
		confidence := detectionsData.GetFloatAt(i, 2)
		if confidence <= d.ConfThreshold {
			continue
		}

		xMin := clampF(detectionsData.GetFloatAt(i, 3)*imgWidth, 0, imgWidth)
		yMin := clampF(detectionsData.GetFloatAt(i, 4)*imgHeight, 0, imgHeight)
		xMax := clampF(detectionsData.GetFloatAt(i, 5)*imgWidth, 0, imgWidth)
		yMax := clampF(detectionsData.GetFloatAt(i, 6)*imgHeight, 0, imgHeight)

		if xMax <= xMin || yMax <= yMin {
			continue
		}

		results = append(results, Detection{
			X:          int(xMin),
			Y:          int(yMin),
			W:          int(xMax - xMin),
			H:          int(yMax - yMin),
			Confidence: confidence,
		})
	}

	return results
}

// LargestFace returns the detection with the biggest area, or nil when the
// frame holds no face.
func LargestFace(detections []Detection) *Detection {
	var best *Detection
	for i := range detections {
		det := &detections[i]
		if best == nil || det.W*det.H > best.W*best.H {
			best = det
		}
	}
	return best
}

func clampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
