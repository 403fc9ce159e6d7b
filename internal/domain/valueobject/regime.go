package valueobject

// Regime определяет режим генерации телеметрии (Value Object)
// false - штатный режим, true - аномальный
type Regime bool

const (
	RegimeNormal    Regime = false
	RegimeAnomalous Regime = true
)

// IsAnomalous возвращает true для аномального режима
func (r Regime) IsAnomalous() bool {
	return bool(r)
}

// String возвращает строковое представление режима
func (r Regime) String() string {
	if r {
		return "anomalous"
	}
	return "normal"
}
