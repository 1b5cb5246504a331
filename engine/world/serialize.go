package world

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/spaghettifunk/flux/engine/assets"
	"github.com/spaghettifunk/flux/engine/core"
	"github.com/spaghettifunk/flux/engine/platform/filesystem"
	"github.com/spaghettifunk/flux/engine/renderer/metadata"
)

var (
	ErrTruncated   = errors.New("world file is truncated")
	ErrNameTooLong = errors.New("name does not fit its record field")
	ErrUnknownMesh = errors.New("entity references an unregistered mesh")
)

const (
	fileNameSize = 256
	materialMaps = 5

	flagCastShadows uint32 = 1 << 0
)

/**
 * @brief Fixed-size little-endian records of the world file. Assets are
 * stored by file name and re-registered on load, never embedded.
 */
type worldHeader struct {
	NextEntitySerial  uint32
	EntityCount       uint32
	FirstEntityOffset uint64
	Name              [metadata.MaxAssetNameLength]byte
}

type materialRecord struct {
	Workflow  uint32
	Color     [4]float32
	Specular  [3]float32
	Shininess float32
	Metallic  float32
	Roughness float32
	AO        float32
	// MapSamplers packs wrap, filter and range as bytes 0, 1 and 2.
	MapFormats  [materialMaps]uint32
	MapSamplers [materialMaps]uint32
	MapFiles    [materialMaps][fileNameSize]byte
}

type entityRecord struct {
	ID             uint32
	P              [3]float32
	Scale          [3]float32
	RotationAngles [3]float32
	Flags          uint32
	Material       materialRecord
	MeshFileFormat uint32
	MeshFileName   [fileNameSize]byte
}

var (
	headerSize = binary.Size(worldHeader{})
	recordSize = binary.Size(entityRecord{})
)

/**
 * @brief The part of the asset manager the world file needs: resolving IDs
 * to file names on save and re-registering file names on load.
 */
type AssetCatalog interface {
	AddMesh(path string, format metadata.MeshFormat) assets.AddResult
	AddTexture(path string, format metadata.TextureFormat, wrap metadata.TextureWrap, filter metadata.TextureFilter, textureRange metadata.TextureRange) assets.AddResult
	MeshInfo(id metadata.AssetID) (assets.MeshSlot, bool)
	TextureInfo(id metadata.AssetID) (assets.TextureSlot, bool)
}

func putString(dst []byte, s string) error {
	if len(s) > len(dst) {
		return fmt.Errorf("%q: %w (%d > %d bytes)", s, ErrNameTooLong, len(s), len(dst))
	}
	copy(dst, s)
	return nil
}

func getString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	return string(src)
}

func packSampler(wrap metadata.TextureWrap, filter metadata.TextureFilter, rng metadata.TextureRange) uint32 {
	return uint32(wrap)&0xff | (uint32(filter)&0xff)<<8 | (uint32(rng)&0xff)<<16
}

func unpackSampler(v uint32) (metadata.TextureWrap, metadata.TextureFilter, metadata.TextureRange) {
	return metadata.TextureWrap(v & 0xff), metadata.TextureFilter(v >> 8 & 0xff), metadata.TextureRange(v >> 16 & 0xff)
}

func (r *materialRecord) fill(material metadata.Material, catalog AssetCatalog, unresolved *UnresolvedRefs) error {
	switch m := material.(type) {
	case nil:
		r.Workflow = uint32(metadata.MaterialWorkflowNone)
		return nil
	case *metadata.PhongMaterial:
		return r.fill(*m, catalog, unresolved)
	case *metadata.PBRMaterial:
		return r.fill(*m, catalog, unresolved)
	case metadata.PhongMaterial:
		r.Color = m.DiffuseColor
		r.Specular = m.SpecularColor
		r.Shininess = m.Shininess
	case metadata.PBRMaterial:
		r.Color = m.Albedo
		r.Metallic = m.Metallic
		r.Roughness = m.Roughness
		r.AO = m.AO
	default:
		return fmt.Errorf("unsupported material %T", material)
	}
	r.Workflow = uint32(material.Workflow())

	for i, id := range material.TextureIDs() {
		if id == metadata.InvalidAssetID {
			if unresolved != nil && unresolved.Maps[i].File != "" {
				ref := unresolved.Maps[i]
				if err := putString(r.MapFiles[i][:], ref.File); err != nil {
					return err
				}
				r.MapFormats[i] = ref.Format
				r.MapSamplers[i] = ref.Sampler
			}
			continue
		}
		slot, ok := catalog.TextureInfo(id)
		if !ok {
			return fmt.Errorf("texture %d is not registered", id)
		}
		if err := putString(r.MapFiles[i][:], slot.Filename); err != nil {
			return err
		}
		r.MapFormats[i] = uint32(slot.Format)
		r.MapSamplers[i] = packSampler(slot.Wrap, slot.Filter, slot.Range)
	}
	return nil
}

// SaveToDisk writes w through files. Every entity mesh must be registered with
// catalog or carry the unresolved reference it was loaded with.
func SaveToDisk(files filesystem.FileIO, path string, w *World, catalog AssetCatalog) error {
	header := worldHeader{
		NextEntitySerial:  w.NextEntitySerial,
		EntityCount:       uint32(len(w.Entities)),
		FirstEntityOffset: uint64(headerSize),
	}
	if err := putString(header.Name[:], w.Name); err != nil {
		return fmt.Errorf("world name: %w", err)
	}

	data := make([]byte, headerSize+len(w.Entities)*recordSize)
	if _, err := binary.Encode(data, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("encode world header: %w", err)
	}

	for i := range w.Entities {
		e := &w.Entities[i]
		meshRef, err := meshReference(e, catalog)
		if err != nil {
			return err
		}
		rec := entityRecord{
			ID:             e.ID,
			P:              e.P,
			Scale:          e.Scale,
			RotationAngles: e.RotationAngles,
			MeshFileFormat: meshRef.Format,
		}
		if e.CastShadows {
			rec.Flags |= flagCastShadows
		}
		if err := putString(rec.MeshFileName[:], meshRef.File); err != nil {
			return fmt.Errorf("entity %d: %w", e.ID, err)
		}
		if err := rec.Material.fill(e.Material, catalog, e.Unresolved); err != nil {
			return fmt.Errorf("entity %d material: %w", e.ID, err)
		}
		offset := headerSize + i*recordSize
		if _, err := binary.Encode(data[offset:], binary.LittleEndian, &rec); err != nil {
			return fmt.Errorf("encode entity %d: %w", e.ID, err)
		}
	}
	return files.WriteFile(path, data)
}

func meshReference(e *Entity, catalog AssetCatalog) (AssetRef, error) {
	if e.Mesh == metadata.InvalidAssetID && e.Unresolved != nil && e.Unresolved.Mesh.File != "" {
		return e.Unresolved.Mesh, nil
	}
	mesh, ok := catalog.MeshInfo(e.Mesh)
	if !ok {
		return AssetRef{}, fmt.Errorf("entity %d: %w (%d)", e.ID, ErrUnknownMesh, e.Mesh)
	}
	return AssetRef{File: mesh.Filename, Format: uint32(mesh.Format)}, nil
}

/**
 * @brief Reads a world file and re-registers every referenced mesh and
 * texture with catalog. Assets already registered under the same name keep
 * their ID. An asset that cannot be registered is logged and left as
 * InvalidAssetID, which renders as missing, and its reference is kept in
 * Entity.Unresolved for the next save.
 */
func LoadWorldFromDisc(files filesystem.FileIO, path string, catalog AssetCatalog, logger *core.Logger) (*World, error) {
	data, err := files.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%s: %w", path, ErrTruncated)
	}
	var header worldHeader
	if _, err := binary.Decode(data, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("decode world header: %w", err)
	}
	end := header.FirstEntityOffset + uint64(header.EntityCount)*uint64(recordSize)
	if header.FirstEntityOffset < uint64(headerSize) || end > uint64(len(data)) {
		return nil, fmt.Errorf("%s: %w (%d entities)", path, ErrTruncated, header.EntityCount)
	}

	w := &World{
		Name:             getString(header.Name[:]),
		NextEntitySerial: header.NextEntitySerial,
		Entities:         make([]Entity, 0, header.EntityCount),
	}
	meshes := make(map[string]metadata.AssetID)
	for i := uint64(0); i < uint64(header.EntityCount); i++ {
		var rec entityRecord
		offset := header.FirstEntityOffset + i*uint64(recordSize)
		if _, err := binary.Decode(data[offset:], binary.LittleEndian, &rec); err != nil {
			return nil, fmt.Errorf("decode entity %d: %w", i, err)
		}

		meshFile := getString(rec.MeshFileName[:])
		id, seen := meshes[meshFile]
		if !seen {
			id = register(logger, meshFile, catalog.AddMesh(meshFile, metadata.MeshFormat(rec.MeshFileFormat)))
			meshes[meshFile] = id
		}
		var unresolved UnresolvedRefs
		if id == metadata.InvalidAssetID {
			unresolved.Mesh = AssetRef{File: meshFile, Format: rec.MeshFileFormat}
		}
		e := Entity{
			ID:             rec.ID,
			P:              rec.P,
			Scale:          rec.Scale,
			RotationAngles: rec.RotationAngles,
			Mesh:           id,
			Material:       rec.Material.material(catalog, logger, &unresolved),
			CastShadows:    rec.Flags&flagCastShadows != 0,
		}
		if unresolved != (UnresolvedRefs{}) {
			e.Unresolved = &unresolved
		}
		w.Entities = append(w.Entities, e)
	}
	logger.Infof("world %q loaded with %d entities", w.Name, len(w.Entities))
	return w, nil
}

// register turns an Add result into an ID, accepting names that are already registered.
func register(logger *core.Logger, file string, res assets.AddResult) metadata.AssetID {
	if res.Status == assets.AddOk || res.Status == assets.AddAlreadyExists {
		return res.ID
	}
	logger.Warnf("world asset %s unavailable: %s", file, res.Status)
	return metadata.InvalidAssetID
}

func (r *materialRecord) material(catalog AssetCatalog, logger *core.Logger, unresolved *UnresolvedRefs) metadata.Material {
	var ids [materialMaps]metadata.AssetID
	for i := range r.MapFiles {
		file := getString(r.MapFiles[i][:])
		if file == "" {
			continue
		}
		wrap, filter, rng := unpackSampler(r.MapSamplers[i])
		ids[i] = register(logger, file, catalog.AddTexture(file, metadata.TextureFormat(r.MapFormats[i]), wrap, filter, rng))
		if ids[i] == metadata.InvalidAssetID {
			unresolved.Maps[i] = AssetRef{File: file, Format: r.MapFormats[i], Sampler: r.MapSamplers[i]}
		}
	}

	switch metadata.MaterialWorkflow(r.Workflow) {
	case metadata.MaterialWorkflowPhong:
		return metadata.PhongMaterial{
			DiffuseColor:  r.Color,
			SpecularColor: r.Specular,
			Shininess:     r.Shininess,
			DiffuseMap:    ids[0],
			SpecularMap:   ids[1],
			NormalMap:     ids[2],
		}
	case metadata.MaterialWorkflowPBR:
		return metadata.PBRMaterial{
			Albedo:       r.Color,
			Metallic:     r.Metallic,
			Roughness:    r.Roughness,
			AO:           r.AO,
			AlbedoMap:    ids[0],
			NormalMap:    ids[1],
			MetallicMap:  ids[2],
			RoughnessMap: ids[3],
			AOMap:        ids[4],
		}
	default:
		return nil
	}
}
