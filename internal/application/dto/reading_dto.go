package dto

import "github.com/aratrikkk/UrjaBharat/internal/domain/entity"

// ReadingDTO представляет показание для передачи между слоями
type ReadingDTO struct {
	Timestamp   string  `json:"timestamp"`
	PowerKW     float64 `json:"power_kw"`
	FlowRate    float64 `json:"flow_rate"`
	PressureIn  float64 `json:"pressure_in"`
	PressureOut float64 `json:"pressure_out"`
	Efficiency  float64 `json:"efficiency"`
	Temp        float64 `json:"temp"`
}

// FromReading конвертирует показание в DTO
func FromReading(r entity.Reading) ReadingDTO {
	return ReadingDTO{
		Timestamp:   r.Timestamp(),
		PowerKW:     r.PowerKW(),
		FlowRate:    r.FlowRate(),
		PressureIn:  r.PressureIn(),
		PressureOut: r.PressureOut(),
		Efficiency:  r.Efficiency(),
		Temp:        r.Temp(),
	}
}

// ToReadingDTOs конвертирует слайс показаний в DTO
func ToReadingDTOs(readings []entity.Reading) []ReadingDTO {
	dtos := make([]ReadingDTO, len(readings))
	for i, r := range readings {
		dtos[i] = FromReading(r)
	}
	return dtos
}
