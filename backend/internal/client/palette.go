package client

import "math/rand"

// palette matches the cursor colors the editor UI renders. Colors are picked
// session-locally and are not guaranteed unique across members.
var palette = []string{
	"#FF6B6B",
	"#4ECDC4",
	"#FFD93D",
	"#6BCB77",
	"#4D96FF",
	"#B983FF",
	"#FF9F45",
}

func PickColor() string {
	return palette[rand.Intn(len(palette))]
}
