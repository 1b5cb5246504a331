package world

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/renderer"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

/**
 * @brief A placed mesh. Rotation is stored as Euler angles in radians,
 * applied yaw (Y), pitch (X), roll (Z).
 */
type Entity struct {
	ID             uint32
	P              mgl32.Vec3
	Scale          mgl32.Vec3
	RotationAngles mgl32.Vec3
	Mesh           metadata.AssetID
	// Material is nil for the default Phong surface.
	Material    metadata.Material
	CastShadows bool
	// Unresolved is set on load when a referenced file could not be registered.
	Unresolved *UnresolvedRefs
}

// AssetRef is a world file reference kept as written.
type AssetRef struct {
	File    string
	Format  uint32
	Sampler uint32
}

/**
 * @brief References of an entity that loaded as InvalidAssetID. Saving writes
 * them back unchanged so a missing file does not drop out of the world.
 * Maps is indexed like Material.TextureIDs().
 */
type UnresolvedRefs struct {
	Mesh AssetRef
	Maps [materialMaps]AssetRef
}

// Transform builds the model matrix T * R * S.
func (e *Entity) Transform() mgl32.Mat4 {
	r := e.RotationAngles
	rotation := mgl32.HomogRotate3DY(r.Y()).Mul4(mgl32.HomogRotate3DX(r.X())).Mul4(mgl32.HomogRotate3DZ(r.Z()))
	return mgl32.Translate3D(e.P.X(), e.P.Y(), e.P.Z()).
		Mul4(rotation).
		Mul4(mgl32.Scale3D(e.Scale.X(), e.Scale.Y(), e.Scale.Z()))
}

type World struct {
	Name             string
	NextEntitySerial uint32
	Entities         []Entity
}

func New(name string) *World {
	return &World{Name: name, NextEntitySerial: 1}
}

// AddEntity assigns the next serial ID to e, appends it and returns the ID.
func (w *World) AddEntity(e Entity) uint32 {
	if w.NextEntitySerial == 0 {
		w.NextEntitySerial = 1
	}
	e.ID = w.NextEntitySerial
	w.NextEntitySerial++
	if e.Scale == (mgl32.Vec3{}) {
		e.Scale = mgl32.Vec3{1, 1, 1}
	}
	w.Entities = append(w.Entities, e)
	return e.ID
}

func (w *World) Entity(id uint32) *Entity {
	for i := range w.Entities {
		if w.Entities[i].ID == id {
			return &w.Entities[i]
		}
	}
	return nil
}

// RemoveEntity keeps the order of the remaining entities. IDs are not reused.
func (w *World) RemoveEntity(id uint32) bool {
	for i := range w.Entities {
		if w.Entities[i].ID == id {
			w.Entities = append(w.Entities[:i], w.Entities[i+1:]...)
			return true
		}
	}
	return false
}

// PushToRenderGroup records one DrawMesh per entity in entity order.
func PushToRenderGroup(w *World, group *renderer.RenderGroup) {
	for i := range w.Entities {
		e := &w.Entities[i]
		group.PushDrawMesh(renderer.DrawMeshCmd{
			Mesh:        e.Mesh,
			Transform:   e.Transform(),
			Material:    e.Material,
			CastShadows: e.CastShadows,
		})
	}
}
