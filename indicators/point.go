package indicators

import "time"

// Point is one dated indicator value.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
