package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawDetection_Validate(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawDetection
		wantErr string
	}{
		{name: "valid", raw: RawDetection{Latitude: 38.5, Longitude: -120.2, FRP: 10}},
		{name: "edges", raw: RawDetection{Latitude: -90, Longitude: 180, FRP: 0}},
		{name: "NaN frp", raw: RawDetection{FRP: math.NaN()}, wantErr: "frp"},
		{name: "infinite frp", raw: RawDetection{FRP: math.Inf(1)}, wantErr: "frp"},
		{name: "negative frp", raw: RawDetection{FRP: -5}, wantErr: "frp"},
		{name: "latitude above range", raw: RawDetection{Latitude: 90.5, FRP: 1}, wantErr: "latitude"},
		{name: "NaN latitude", raw: RawDetection{Latitude: math.NaN(), FRP: 1}, wantErr: "latitude"},
		{name: "longitude below range", raw: RawDetection{Longitude: -180.1, FRP: 1}, wantErr: "longitude"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.raw.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
