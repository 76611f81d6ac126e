package scene

// Restyle re-derives a marker's color from its base height under p.
// Position and grid indices are untouched.
func Restyle(m Marker, p ViewParameters) Marker {
	m.Normalized = NormalizedFromY(m.Base.Y())
	m.Color = p.Gradient(m.Normalized)
	return m
}

// baseSphere is the static primitive for a marker at rest.
func baseSphere(m Marker, p ViewParameters, l Layout) Sphere {
	return Sphere{
		Center:   m.Base,
		Radius:   l.Radius,
		Color:    m.Color,
		Emissive: p.Glow,
		Opacity:  p.Alpha,
	}
}
