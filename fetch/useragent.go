package fetch

import (
	"fmt"
	"math/rand/v2"
)

var desktopPlatforms = []string{
	"Windows NT 10.0; Win64; x64",
	"Windows NT 11.0; Win64; x64",
	"Macintosh; Intel Mac OS X 10_15_7",
	"Macintosh; Intel Mac OS X 14_4_1",
	"X11; Linux x86_64",
	"X11; Ubuntu; Linux x86_64",
}

var uaGens = []func(platform string) string{
	chromeUA,
	firefoxUA,
	edgeUA,
}

// RandomDesktopUA produces a plausible desktop browser User-Agent string.
func RandomDesktopUA() string {
	platform := desktopPlatforms[rand.IntN(len(desktopPlatforms))]
	return uaGens[rand.IntN(len(uaGens))](platform)
}

func chromeUA(platform string) string {
	major := 120 + rand.IntN(12)
	return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", platform, major)
}

func edgeUA(platform string) string {
	major := 120 + rand.IntN(12)
	return fmt.Sprintf("Mozilla/5.0 (%s) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36 Edg/%d.0.0.0", platform, major, major)
}

func firefoxUA(platform string) string {
	major := 115 + rand.IntN(15)
	if platform == "Macintosh; Intel Mac OS X 14_4_1" {
		platform = "Macintosh; Intel Mac OS X 14.4"
	}
	return fmt.Sprintf("Mozilla/5.0 (%s; rv:%d.0) Gecko/20100101 Firefox/%d.0", platform, major, major)
}
