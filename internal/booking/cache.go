package booking

import (
	"sync"

	"pet-appointment-scheduling/internal/domain/clinics"
	"pet-appointment-scheduling/internal/domain/pets"
)

// Kind agrupa las entradas del cache; Invalidate opera por kind.
type Kind string

const (
	KindPet    Kind = "pet"
	KindClinic Kind = "clinic"
	KindVets   Kind = "vets" // roster, keyed por clinic id
)

// Cache guarda el último valor traído por cada (kind, key). Solo memoria.
// Last-write-wins por key; quién escribe y cuándo lo decide el Resolver.
type Cache struct {
	mu      sync.RWMutex
	entries map[Kind]map[string]any
}

func NewCache() *Cache {
	return &Cache{entries: make(map[Kind]map[string]any)}
}

func (c *Cache) Get(kind Kind, key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[kind][key]
	return v, ok
}

func (c *Cache) Set(kind Kind, key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.entries[kind]
	if !ok {
		m = make(map[string]any)
		c.entries[kind] = m
	}
	m[key] = v
}

func (c *Cache) Invalidate(kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, kind)
}

func (c *Cache) Pet(id string) (pets.Pet, bool) {
	v, ok := c.Get(KindPet, id)
	if !ok {
		return pets.Pet{}, false
	}
	p, ok := v.(pets.Pet)
	return p, ok
}

func (c *Cache) SetPet(p pets.Pet) { c.Set(KindPet, p.ID, p) }

func (c *Cache) Clinic(id string) (clinics.Clinic, bool) {
	v, ok := c.Get(KindClinic, id)
	if !ok {
		return clinics.Clinic{}, false
	}
	cl, ok := v.(clinics.Clinic)
	return cl, ok
}

func (c *Cache) SetClinic(cl clinics.Clinic) { c.Set(KindClinic, cl.ID, cl) }

// Vets devuelve una copia del roster cacheado.
func (c *Cache) Vets(clinicID string) ([]clinics.Vet, bool) {
	v, ok := c.Get(KindVets, clinicID)
	if !ok {
		return nil, false
	}
	roster, ok := v.([]clinics.Vet)
	if !ok {
		return nil, false
	}
	return append([]clinics.Vet(nil), roster...), true
}

func (c *Cache) SetVets(clinicID string, roster []clinics.Vet) {
	c.Set(KindVets, clinicID, append([]clinics.Vet(nil), roster...))
}
