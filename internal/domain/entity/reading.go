package entity

// Reading представляет одно показание датчиков компрессорной станции
// Неизменяемо после создания: все поля доступны только через геттеры
type Reading struct {
	timestamp   string
	powerKW     float64
	flowRate    float64
	pressureIn  float64
	pressureOut float64
	efficiency  float64
	temp        float64
}

// ReadingValues - набор измеренных величин для NewReading
type ReadingValues struct {
	PowerKW     float64
	FlowRate    float64
	PressureIn  float64
	PressureOut float64
	Efficiency  float64
	Temp        float64
}

// NewReading создает показание с меткой времени
// Эффективность приводится к диапазону [0, 1]
func NewReading(timestamp string, v ReadingValues) Reading {
	efficiency := v.Efficiency
	if efficiency < 0 {
		efficiency = 0
	}
	if efficiency > 1 {
		efficiency = 1
	}

	return Reading{
		timestamp:   timestamp,
		powerKW:     v.PowerKW,
		flowRate:    v.FlowRate,
		pressureIn:  v.PressureIn,
		pressureOut: v.PressureOut,
		efficiency:  efficiency,
		temp:        v.Temp,
	}
}

// Timestamp возвращает метку синтетических часов
func (r Reading) Timestamp() string {
	return r.timestamp
}

// PowerKW возвращает потребляемую мощность, кВт
func (r Reading) PowerKW() float64 {
	return r.powerKW
}

// FlowRate возвращает расход, кг/с
func (r Reading) FlowRate() float64 {
	return r.flowRate
}

// PressureIn возвращает давление на входе, бар
func (r Reading) PressureIn() float64 {
	return r.pressureIn
}

// PressureOut возвращает давление на выходе, бар
func (r Reading) PressureOut() float64 {
	return r.pressureOut
}

// Efficiency возвращает изотермический КПД (доля от 0 до 1)
func (r Reading) Efficiency() float64 {
	return r.efficiency
}

// Temp возвращает температуру, °C
func (r Reading) Temp() float64 {
	return r.temp
}
