package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	t.Run("zero distance", func(t *testing.T) {
		p := Geo{Lat: 16.0544, Lon: 108.2022}
		assert.Equal(t, 0.0, HaversineKm(p, p))
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		a := Geo{Lat: 16.0, Lon: 108.0}
		b := Geo{Lat: 17.0, Lon: 108.0}
		assert.InDelta(t, 111.2, HaversineKm(a, b), 0.5)
	})

	t.Run("Hanoi to Da Nang", func(t *testing.T) {
		hanoi := Geo{Lat: 21.0278, Lon: 105.8342}
		daNang := Geo{Lat: 16.0544, Lon: 108.2022}
		assert.InDelta(t, 607, HaversineKm(hanoi, daNang), 10)
	})

	t.Run("symmetric", func(t *testing.T) {
		a := Geo{Lat: 10.7769, Lon: 106.7009}
		b := Geo{Lat: 21.0278, Lon: 105.8342}
		assert.InDelta(t, HaversineKm(a, b), HaversineKm(b, a), 1e-9)
	})
}
