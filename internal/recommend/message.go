package recommend

import (
	"fmt"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EcoMessage describes how green a choice is for the given distance
func EcoMessage(greenScore int, modeName string, distanceKM float64) string {
	name := cases.Title(language.English).String(modeName)
	dist := strconv.FormatFloat(distanceKM, 'f', -1, 64)

	switch {
	case greenScore >= 90:
		return fmt.Sprintf("🌱 Excellent choice! %s is the greenest option for this %s km journey.", name, dist)
	case greenScore >= 75:
		return fmt.Sprintf("✅ Good choice! %s is a sustainable option for this %s km journey.", name, dist)
	case greenScore >= 50:
		return fmt.Sprintf("⚠️ Moderate option. Consider %s for this %s km journey, but explore greener alternatives if possible.", name, dist)
	default:
		return fmt.Sprintf("❌ High emissions. %s has significant environmental impact over %s km. Choose greener options.", name, dist)
	}
}
