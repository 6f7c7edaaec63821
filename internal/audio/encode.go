package audio

import (
	"encoding/base64"
	"fmt"
)

// Blob is an encoded audio payload in the wire format the live translation
// service expects: base64 PCM16 with an explicit rate in the mime type.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// EncodeFrame converts one capture frame into a wire payload. Pure; no side
// effects.
func EncodeFrame(frame []int16, sampleRate int) Blob {
	return Blob{
		MimeType: fmt.Sprintf("audio/pcm;rate=%d", sampleRate),
		Data:     base64.StdEncoding.EncodeToString(SamplesToBytes(frame)),
	}
}

// SamplesToBytes converts 16-bit samples to little-endian bytes
func SamplesToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, sample := range samples {
		data[i*2] = byte(sample)
		data[i*2+1] = byte(sample >> 8)
	}
	return data
}

// BytesToSamples converts little-endian PCM16 bytes to 16-bit samples.
// A trailing odd byte is ignored.
func BytesToSamples(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// Resample performs simple linear interpolation resampling between two
// sample rates. Returns the input unchanged when the rates match.
func Resample(samples []int16, inputRate, outputRate int) []int16 {
	if inputRate == outputRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(outputRate) / float64(inputRate)
	outputLength := int(float64(len(samples)) * ratio)
	output := make([]int16, outputLength)

	for i := 0; i < outputLength; i++ {
		srcPos := float64(i) / ratio

		idx0 := int(srcPos)
		idx1 := idx0 + 1
		if idx1 >= len(samples) {
			idx1 = len(samples) - 1
		}

		fraction := srcPos - float64(idx0)
		output[i] = int16(float64(samples[idx0])*(1.0-fraction) + float64(samples[idx1])*fraction)
	}

	return output
}

// DecodeBlob decodes a base64 PCM payload back to raw bytes.
func DecodeBlob(data string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}
	return raw, nil
}
