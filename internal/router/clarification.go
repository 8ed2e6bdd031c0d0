package router

import (
	"strings"
	"unicode"

	"bisage.dev/gateway/internal/model"
)

// generateClarification builds a contextual clarifying question and 2-4
// options for the given ambiguity kind.
func generateClarification(qLower, kind string) model.ClarificationData {
	switch kind {
	case "pronoun_without_context":
		return model.ClarificationData{
			Question: "No tengo contexto previo. Que datos te gustaria ver?",
			Options: []string{
				"Ventas del mes actual",
				"Estado del inventario",
				"Rendimiento del agente AI",
				"Ordenes recientes",
			},
			UnderstoodContext: "Detecte una referencia a algo previo, pero no tengo ese contexto.",
		}

	case "too_short":
		switch detectDomain(qLower) {
		case "sales":
			return model.ClarificationData{
				Question: "Sobre ventas, que te gustaria saber?",
				Options: []string{
					"Total de ventas del mes",
					"Productos mas vendidos",
					"Tendencia de ventas",
					"Comparar con mes anterior",
				},
				UnderstoodContext: "Parece que preguntas sobre ventas.",
			}
		case "inventory":
			return model.ClarificationData{
				Question: "Sobre inventario, que te gustaria saber?",
				Options: []string{
					"Productos con stock bajo",
					"Resumen de inventario",
					"Productos que necesitan reposicion",
					"Alertas de stock",
				},
				UnderstoodContext: "Parece que preguntas sobre inventario.",
			}
		default:
			return model.ClarificationData{
				Question: "Tu pregunta es muy breve. Sobre que area te gustaria saber?",
				Options: []string{
					"Ventas y ordenes",
					"Inventario y stock",
					"Agente AI e interacciones",
					"Casos escalados",
				},
				UnderstoodContext: "No pude identificar claramente el tema.",
			}
		}

	case "show_without_object":
		return model.ClarificationData{
			Question: "Que te gustaria que te muestre?",
			Options: []string{
				"Dashboard de ventas",
				"Estado del inventario",
				"Metricas del agente AI",
				"Ordenes recientes",
			},
			UnderstoodContext: "Quieres ver algo, pero no especificaste que.",
		}

	case "compare_without_subject":
		return model.ClarificationData{
			Question: "Que te gustaria comparar y en que periodo?",
			Options: []string{
				"Ventas: este mes vs anterior",
				"Inventario: actual vs hace 30 dias",
				"Rendimiento AI: esta semana vs anterior",
			},
			UnderstoodContext: "Quieres hacer una comparacion.",
		}

	case "multi_domain":
		var labels []string
		for domain, keywords := range domainKeywords {
			if containsAny(qLower, keywords) {
				labels = append(labels, domainLabels[domain])
			}
		}
		return model.ClarificationData{
			Question:          "Mencionas varios temas (" + joinLabels(labels) + "). En cual te enfoco?",
			Options:           capitalizeAll(labels),
			UnderstoodContext: "Detecte multiples temas: " + joinLabels(labels) + ".",
		}

	case "comparison_without_period":
		return model.ClarificationData{
			Question: "Que periodos quieres comparar?",
			Options: []string{
				"Este mes vs mes anterior",
				"Esta semana vs semana anterior",
				"Ultimos 7 dias vs 7 dias previos",
				"Este año vs año anterior",
			},
			UnderstoodContext: "Quieres comparar, pero no especificaste los periodos.",
		}
	}

	return model.ClarificationData{
		Question: "Podrias ser mas especifico? Que datos necesitas?",
		Options: []string{
			"Ventas y ordenes",
			"Inventario y stock",
			"Agente AI",
			"Casos escalados",
		},
		UnderstoodContext: "No pude interpretar completamente tu pregunta.",
	}
}

func joinLabels(labels []string) string {
	return strings.Join(labels, ", ")
}

func capitalizeAll(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = capitalize(l)
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
