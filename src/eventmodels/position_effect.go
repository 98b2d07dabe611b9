package eventmodels

type PositionEffect string

const (
	PositionEffectOpen  PositionEffect = "open"
	PositionEffectClose PositionEffect = "close"
)
