// Package routing resolves a report's owning department from its category.
package routing

import (
	"strings"

	id "atiende/pkg/domain"
)

// departmentByCategory is the static category routing table. It tolerates
// singular/plural variants and legacy aliases so historical data keeps
// routing the same way. Unknown categories never fail creation; they fall
// through to the administration catch-all.
var departmentByCategory = map[string]id.Department{
	// Obras Públicas
	"bache":            "obras_publicas",
	"baches":           "obras_publicas",
	"pavimento_danado": "obras_publicas",
	"banqueta_rota":    "obras_publicas",
	"banquetas_rotas":  "obras_publicas",
	"alcantarilla":     "obras_publicas",
	"alcantarillas":    "obras_publicas",

	// Servicios Públicos (mantenimiento general)
	"alumbrado": "servicios_publicos",
	"basura":    "servicios_publicos",
	"limpieza":  "servicios_publicos",

	// Agua Potable (red hidráulica especializada)
	"falta_agua": "agua_potable",
	"fuga_agua":  "agua_potable",
	"fugas_agua": "agua_potable",

	// Seguridad Pública
	"inseguridad": "seguridad_publica",
	"accidente":   "seguridad_publica",
	"accidentes":  "seguridad_publica",
	"delito":      "seguridad_publica",
	"delitos":     "seguridad_publica",

	// Salud
	"plaga":            "salud",
	"plagas":           "salud",
	"mascota_herida":   "salud",
	"mascotas_heridas": "salud",
	"contaminacion":    "salud",

	// Medio Ambiente
	"arbol_caido":    "medio_ambiente",
	"arboles_caidos": "medio_ambiente",
	"deforestacion":  "medio_ambiente",
	"quema":          "medio_ambiente",
	"quemas":         "medio_ambiente",

	// Legacy aliases kept for historical data; not offered for new reports.
	"agua":      "agua_potable",
	"parques":   "parques_jardines",
	"seguridad": "seguridad_publica",
}

// NormalizeCategory canonicalizes a raw category string: lower-case, with
// spaces and hyphens as underscores. Matching is exact after normalization.
func NormalizeCategory(tipo string) string {
	t := strings.ToLower(strings.TrimSpace(tipo))
	t = strings.ReplaceAll(t, " ", "_")
	t = strings.ReplaceAll(t, "-", "_")
	return t
}

// Resolve returns the owning department for a category. Unmapped categories
// default to administration.
func Resolve(tipo string) id.Department {
	if dep, ok := departmentByCategory[NormalizeCategory(tipo)]; ok {
		return dep
	}
	return id.DepartmentAdministration
}
