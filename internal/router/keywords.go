package router

import (
	"regexp"
	"strings"
)

// conversationalPattern pairs a compiled regex with the direct-response
// key it maps to. Ordering matters: the first match wins.
type conversationalPattern struct {
	re  *regexp.Regexp
	key string
}

var conversationalPatterns = []conversationalPattern{
	{regexp.MustCompile(`^(hola|hey|buenas|buenos dias|buenas tardes|buenas noches|saludos)`), "greeting"},
	{regexp.MustCompile(`^(gracias|muchas gracias|thanks|ok|perfecto|genial|excelente)`), "thanks"},
	{regexp.MustCompile(`(que puedes hacer|que sabes hacer|ayuda|help|como funciona)`), "help"},
	{regexp.MustCompile(`(quien eres|que eres|como te llamas)`), "identity"},
}

var directResponses = map[string]string{
	"greeting": "Hola! Soy el asistente de datos. Puedo ayudarte con:\n- Ventas y ordenes\n- Inventario y productos\n- Rendimiento del agente AI\n- Casos escalados\n\nQue te gustaria saber?",
	"thanks":   "De nada! Si tienes mas preguntas sobre tus datos, estoy aqui para ayudarte.",
	"help":     "Puedo ayudarte a analizar tus datos de negocio. Prueba preguntas como:\n- Como van las ventas?\n- Mostrame el inventario\n- Productos con stock bajo\n- Como esta el agente AI?\n- Ultimas ordenes",
	"identity": "Soy un asistente de BI potenciado por IA. Analizo tus datos de ventas, inventario y servicio al cliente para darte insights accionables.",
}

var dataKeywords = []string{
	"cuanto", "cuantos", "cuantas", "total", "suma", "cantidad",
	"vendimos", "ventas", "venta", "vendido", "ventesa", "vetas",
	"ordenes", "orden", "pedidos", "pedido",
	"productos", "producto", "inventario", "stock",
	"escalados", "escalaciones", "casos",
	"agente", "ai", "bot", "interacciones",
	"preventa", "preguntas",
	"ingresos", "revenue", "facturacion",
	"promedio", "media", "kpi", "metricas",
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	"mes", "semana", "dia", "año", "trimestre", "periodo",
	"dime", "dame", "decime", "quiero", "necesito", "busco",
}

var dashboardKeywords = []string{
	"mostrame", "muestrame", "muestra", "ver", "visualiza",
	"grafico", "graficos", "gráfico", "gráficos", "chart", "charts",
	"dashboard", "panel", "reporte",
	"tendencia", "tendencias", "evolucion", "evolución",
	"comparar", "comparacion", "comparación", "versus", "vs",
	"analisis", "análisis", "analiza", "analizar",
	"pareto", "insight", "insights", "resumen", "ticket",
	"reposicion", "reposición", "reponer", "necesitar", "recomendar",
	"bajo stock", "alta rotacion", "rotacion", "rotación",
	"quebrar", "quiebre", "agotar", "agotarse", "agotando", "faltante",
	"critico", "criticos", "crítico", "críticos", "alertas", "alerta",
	"proyeccion", "proyectar", "estimar", "predecir",
	"margen", "ganancia", "beneficio",
	"cyber", "cybermonday", "black friday", "hot sale",
	"crecimiento", "ciclo", "temporada",
	"como van", "como estan", "como esta", "que tal", "como vamos",
	"como fue", "como fueron", "como estuvo", "como me fue",
	"resumen", "resume", "resumir", "resumime",
	"situacion", "estado de", "status",
	"ultimos", "ultimas", "recientes", "hoy", "ayer", "actualmente", "actual",
	"este mes", "esta semana", "este año",
	"cual fue", "cuál fue", "cual es", "cuál es",
	"mas vendido", "más vendido", "menos vendido",
	"mejor mes", "peor mes", "mejor dia", "peor dia",
	"que mes", "qué mes", "en que mes", "en qué mes",
	"que producto", "qué producto", "cuales", "cuáles",
	"aumentar stock", "aumentar inventario", "ponderar",
	"debo hacer", "deberia", "debería", "recomienda", "sugieres",
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// domainKeywords maps each business domain to the vocabulary that
// identifies it, used by argmax domain detection.
var domainKeywords = map[string][]string{
	"sales":         {"venta", "vendido", "orden", "pedido", "factura", "ingreso", "revenue"},
	"inventory":     {"producto", "inventario", "stock", "disponible"},
	"conversations": {"agente", "ai", "bot", "interaccion", "conversacion", "mensaje"},
	"escalations":   {"escalado", "escalacion", "caso", "soporte", "ticket"},
	"presale":       {"preventa", "pregunta", "consulta"},
}

var domainLabels = map[string]string{
	"sales":         "ventas",
	"inventory":     "inventario",
	"conversations": "interacciones AI",
	"escalations":   "casos escalados",
	"presale":       "preventa",
}

type ambiguityPattern struct {
	re   *regexp.Regexp
	kind string
}

var ambiguityPatterns = []ambiguityPattern{
	{regexp.MustCompile(`^(eso|esto|aquello|ese|este|aquel)\b`), "pronoun_without_context"},
	{regexp.MustCompile(`^(lo|la|los|las|le|les)\s+\w+$`), "short_pronoun"},
	{regexp.MustCompile(`^(cuanto|cuantos|cuantas|que|como)\s*\??$`), "too_short"},
	{regexp.MustCompile(`^(mostrame|muestrame|dame|dime)\s*\??$`), "show_without_object"},
	{regexp.MustCompile(`^(comparar?|versus|vs)\s*$`), "compare_without_subject"},
}

var timeReferenceKeywords = []string{
	"mes", "semana", "dia", "año", "ayer", "hoy",
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
