package weather

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/weather-bot/meow/internal/fit"
)

var validate = validator.New()

// Record is the weather data printed on one card. Temperature is in °C and
// Humidity in percent.
type Record struct {
	Title       string  `json:"title" validate:"required"`
	Location    string  `json:"location"`
	Time        string  `json:"time" validate:"required"`
	Temperature float64 `json:"temp"`
	Humidity    float64 `json:"humd" validate:"gte=0"`
	Overview    string  `json:"overview"`
	Overview2   string  `json:"overview2"`
}

// Decode reads one JSON record. Upper bounds are left to the renderer.
func Decode(r io.Reader) (Record, error) {
	var rec Record
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rec); err != nil {
		return Record{}, fmt.Errorf("decode weather info: %w", err)
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func Parse(s string) (Record, error) {
	return Decode(strings.NewReader(s))
}

func (r Record) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid weather info: %w", err)
	}
	return nil
}

// HumidityText renders humidity as "87%".
func (r Record) HumidityText() string {
	return fit.FormatNumber(r.Humidity) + "%"
}

// TemperatureText renders temperature as "25℃".
func (r Record) TemperatureText() string {
	return fit.FormatNumber(r.Temperature) + "℃"
}
