package types

import "math"

// Vector 三维坐标（米）
type Vector struct {
	X float64
	Y float64
	Z float64
}

// Sub 返回 v - o
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

// Length 返回到原点的欧氏距离
func (v Vector) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// DistanceTo 返回两点间欧氏距离
func (v Vector) DistanceTo(o Vector) float64 {
	return v.Sub(o).Length()
}
