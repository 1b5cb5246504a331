package renderer

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/flux/engine/renderer/components"
)

/** @brief Number of shadow cascades. Fixed, backends size their targets by it. */
const CascadeCount = 3

// depth padding so casters behind the camera slice still land in the map
const casterPadding = 50

/**
 * @brief One shadow cascade: the view depth range it covers and the matrix
 * taking world space into its light clip space.
 */
type Cascade struct {
	SplitNear  float32
	SplitFar   float32
	LightSpace mgl32.Mat4
	Center     mgl32.Vec3
	// Radius of the bounding sphere, only meaningful for stable cascades.
	Radius float32
}

type CascadeSettings struct {
	// Stable cascades fit a bounding sphere and snap to texels, which removes
	// shimmering under camera motion at the cost of looser bounds.
	Stable bool
	// Lambda blends uniform (0) and logarithmic (1) split placement.
	Lambda float32
	// Distance is the far end of the last cascade, clamped to the camera far plane.
	Distance float32
	MapSize  int
}

/**
 * @brief Practical split scheme: each split blends the logarithmic and the
 * uniform distribution by lambda. The result starts at near and ends at far.
 */
func SplitDistances(near, far, lambda float32) [CascadeCount + 1]float32 {
	var splits [CascadeCount + 1]float32
	splits[0] = near
	for i := 1; i <= CascadeCount; i++ {
		p := float32(i) / CascadeCount
		logSplit := near * math32.Pow(far/near, p)
		uniform := near + (far-near)*p
		splits[i] = lambda*logSplit + (1-lambda)*uniform
	}
	splits[CascadeCount] = far
	return splits
}

// frustumCorners returns the world space corners of the camera frustum slice
// between near and far.
func frustumCorners(cam *components.Camera, near, far float32) [8]mgl32.Vec3 {
	proj := mgl32.Perspective(cam.FOV, cam.Aspect, near, far)
	inv := proj.Mul4(cam.GetView()).Inv()

	var corners [8]mgl32.Vec3
	i := 0
	for _, x := range []float32{-1, 1} {
		for _, y := range []float32{-1, 1} {
			for _, z := range []float32{-1, 1} {
				p := inv.Mul4x1(mgl32.Vec4{x, y, z, 1})
				corners[i] = p.Vec3().Mul(1 / p.W())
				i++
			}
		}
	}
	return corners
}

func lightUp(dir mgl32.Vec3) mgl32.Vec3 {
	if math32.Abs(dir.Dot(mgl32.Vec3{0, 1, 0})) > 0.99 {
		return mgl32.Vec3{0, 0, 1}
	}
	return mgl32.Vec3{0, 1, 0}
}

/**
 * @brief Computes the split ranges and light space matrices of every cascade.
 * Runs once per frame before any pass.
 */
func ComputeCascades(cam *components.Camera, light DirectionalLight, settings CascadeSettings) [CascadeCount]Cascade {
	far := cam.Far
	if settings.Distance > cam.Near && settings.Distance < far {
		far = settings.Distance
	}
	splits := SplitDistances(cam.Near, far, settings.Lambda)

	dir := light.Direction
	if dir.Len() == 0 {
		dir = mgl32.Vec3{0, -1, 0}
	}
	dir = dir.Normalize()
	up := lightUp(dir)

	var cascades [CascadeCount]Cascade
	for i := range cascades {
		corners := frustumCorners(cam, splits[i], splits[i+1])
		c := &cascades[i]
		c.SplitNear, c.SplitFar = splits[i], splits[i+1]
		if settings.Stable {
			stableCascade(c, corners, dir, up, settings.MapSize)
		} else {
			fittedCascade(c, corners, dir, up)
		}
	}
	return cascades
}

func centroid(corners [8]mgl32.Vec3) mgl32.Vec3 {
	var center mgl32.Vec3
	for _, p := range corners {
		center = center.Add(p)
	}
	return center.Mul(1.0 / 8)
}

func stableCascade(c *Cascade, corners [8]mgl32.Vec3, dir, up mgl32.Vec3, mapSize int) {
	center := centroid(corners)
	var radius float32
	for _, p := range corners {
		radius = math32.Max(radius, p.Sub(center).Len())
	}
	// quantize so the sphere does not breathe with camera rotation
	radius = math32.Ceil(radius*16) / 16

	eye := center.Sub(dir.Mul(radius + casterPadding))
	view := mgl32.LookAtV(eye, center, up)
	proj := mgl32.Ortho(-radius, radius, -radius, radius, 0, 2*radius+casterPadding)

	if mapSize > 0 {
		// move the projection by the sub-texel offset of the world origin
		half := float32(mapSize) / 2
		origin := proj.Mul4(view).Mul4x1(mgl32.Vec4{0, 0, 0, 1})
		ox, oy := origin.X()*half, origin.Y()*half
		proj[12] += (math32.Round(ox) - ox) / half
		proj[13] += (math32.Round(oy) - oy) / half
	}

	c.Center = center
	c.Radius = radius
	c.LightSpace = proj.Mul4(view)
}

func fittedCascade(c *Cascade, corners [8]mgl32.Vec3, dir, up mgl32.Vec3) {
	center := centroid(corners)
	view := mgl32.LookAtV(center.Sub(dir), center, up)

	lo := mgl32.Vec3{math32.MaxFloat32, math32.MaxFloat32, math32.MaxFloat32}
	hi := lo.Mul(-1)
	for _, p := range corners {
		v := view.Mul4x1(p.Vec4(1)).Vec3()
		for k := 0; k < 3; k++ {
			lo[k] = math32.Min(lo[k], v[k])
			hi[k] = math32.Max(hi[k], v[k])
		}
	}
	// the light looks down -Z, so the nearest point has the largest z
	proj := mgl32.Ortho(lo.X(), hi.X(), lo.Y(), hi.Y(), -hi.Z()-casterPadding, -lo.Z()+casterPadding)

	c.Center = center
	c.LightSpace = proj.Mul4(view)
}

// CascadeFor picks the cascade covering a view space depth, the last one past the far split.
func CascadeFor(cascades [CascadeCount]Cascade, depth float32) int {
	for i, c := range cascades {
		if depth <= c.SplitFar {
			return i
		}
	}
	return CascadeCount - 1
}
