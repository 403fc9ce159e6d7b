package service

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/aratrikkk/UrjaBharat/internal/domain/entity"
	"github.com/aratrikkk/UrjaBharat/internal/domain/valueobject"
)

// RandomSource выдает равномерно распределенные значения из [0, 1)
type RandomSource interface {
	Float64() float64
}

// ReadingGenerator производит синтетические показания (Domain Service)
// Распределения задаются профилем генерации и зависят от режима
type ReadingGenerator struct {
	profile valueobject.GenerationProfile
	mu      sync.Mutex
	rnd     RandomSource
}

// NewReadingGenerator создает генератор с заданным профилем
// rnd может быть nil - тогда используется PCG, инициализированный временем
func NewReadingGenerator(profile valueobject.GenerationProfile, rnd RandomSource) (*ReadingGenerator, error) {
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generation profile: %w", err)
	}

	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	return &ReadingGenerator{
		profile: profile,
		rnd:     rnd,
	}, nil
}

// Generate создает одно показание для метки времени под заданным режимом
// Каждая величина выбирается независимо и равномерно из своего диапазона
func (g *ReadingGenerator) Generate(timestamp string, regime valueobject.Regime) entity.Reading {
	p := g.profile.For(regime)

	g.mu.Lock()
	defer g.mu.Unlock()

	return entity.NewReading(timestamp, entity.ReadingValues{
		PowerKW:     p.PowerKW.Sample(g.rnd.Float64()),
		FlowRate:    p.FlowRate.Sample(g.rnd.Float64()),
		PressureIn:  g.profile.PressureIn,
		PressureOut: p.PressureOut.Sample(g.rnd.Float64()),
		Efficiency:  p.Efficiency.Sample(g.rnd.Float64()),
		Temp:        p.Temp.Sample(g.rnd.Float64()),
	})
}

// Seed создает окно из n штатных показаний с метками "0:00", "1:00", ...
func (g *ReadingGenerator) Seed(capacity, n int) (entity.Window, error) {
	readings := make([]entity.Reading, 0, n)
	for i := 0; i < n; i++ {
		readings = append(readings, g.Generate(valueobject.SeedTimeLabel(i), valueobject.RegimeNormal))
	}

	return entity.NewWindow(capacity, readings...)
}

// Profile возвращает профиль генерации
func (g *ReadingGenerator) Profile() valueobject.GenerationProfile {
	return g.profile
}
