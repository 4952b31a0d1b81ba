package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// GetPhotoTakenAt extracts the EXIF capture time of an enrollment photo as a
// Unix timestamp. A photo without EXIF data is not an error; the result is
// simply nil.
func GetPhotoTakenAt(filePath string) (*int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("metadata: failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	exifData, err := exif.Decode(file)
	if err != nil {
		// not necessarily a fatal error, file might just lack EXIF data
		log.Printf("metadata: No EXIF data found or error decoding EXIF for %s: %v", filePath, err)
		return nil, nil
	}

	dt, err := exifData.DateTime()
	if err != nil {
		log.Printf("metadata: Could not read DateTimeOriginal for %s: %v", filePath, err)
		return nil, nil
	}

	ts := dt.Unix()
	return &ts, nil
}
