package assets

import (
	"fmt"
	"hash/fnv"

	"github.com/spaghettifunk/flux/engine/containers"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

type nameEntry struct {
	name string
	id   metadata.AssetID
}

/**
 * @brief Interns asset names. Each distinct name maps to at most one live ID,
 * and IDs come from a serial counter so they are never handed out twice.
 */
type NameTable struct {
	entries *containers.HashMap[uint64, nameEntry]
	serial  *core.SerialCounter
}

func NewNameTable(capacity int, serial *core.SerialCounter) *NameTable {
	return &NameTable{
		entries: containers.NewHashMap[uint64, nameEntry](capacity, true),
		serial:  serial,
	}
}

// nameKey hashes name with FNV-1a. 0 is the empty bucket sentinel so it is remapped.
func nameKey(name string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	if k := h.Sum64(); k != 0 {
		return k
	}
	return 1
}

/**
 * @brief Interns name under a fresh ID.
 * @return The new ID, or InvalidAssetID if the name is empty, already present
 * or collides with a different name's hash.
 */
func (nt *NameTable) AddName(name string) metadata.AssetID {
	if name == "" {
		return metadata.InvalidAssetID
	}
	entry, ok := nt.entries.Add(nameKey(name))
	if !ok {
		return metadata.InvalidAssetID
	}
	entry.name = name
	entry.id = metadata.AssetID(nt.serial.Next())
	return entry.id
}

// RemoveName releases name. The name must be present.
func (nt *NameTable) RemoveName(name string) {
	key := nameKey(name)
	entry, ok := nt.entries.Get(key)
	if !ok || entry.name != name {
		panic(fmt.Sprintf("assets: removing name %q that was never interned", name))
	}
	nt.entries.Delete(key)
}

// GetID returns the ID interned for name, InvalidAssetID when absent.
func (nt *NameTable) GetID(name string) metadata.AssetID {
	entry, ok := nt.entries.Get(nameKey(name))
	if !ok || entry.name != name {
		return metadata.InvalidAssetID
	}
	return entry.id
}

// Collides reports whether name is absent but its hash is taken by another name.
func (nt *NameTable) Collides(name string) bool {
	entry, ok := nt.entries.Get(nameKey(name))
	return ok && entry.name != name
}

func (nt *NameTable) Len() int {
	return nt.entries.Len()
}
