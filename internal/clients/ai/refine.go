package ai

import (
	"context"
	"fmt"
	"strings"
)

// RefineContext names the field being refined; it selects the system prompt.
type RefineContext string

const (
	ContextProductName        RefineContext = "product_name"
	ContextProductDescription RefineContext = "product_description"
	ContextShopStory          RefineContext = "shop_story"
	ContextShopMission        RefineContext = "shop_mission"
	ContextShopVision         RefineContext = "shop_vision"
	ContextShopDescription    RefineContext = "shop_description"
	ContextShopName           RefineContext = "shop_name"
)

type RefineExtra struct {
	ProductName string `json:"productName"`
	HasImages   bool   `json:"hasImages"`
	ImageCount  int    `json:"imageCount"`
}

var refinePrompts = map[RefineContext]string{
	ContextProductName: `Eres un experto en marketing de productos artesanales. Refina nombres de productos para que sean atractivos, memorables y comerciales.

INSTRUCCIONES:
- Responde SOLO con el nombre refinado, sin explicaciones
- Mantén la esencia del producto original
- En español, máximo 60 caracteres
- Comercial pero auténtico, sin palabras técnicas`,

	ContextProductDescription: `Eres un copywriter especializado en productos artesanales. Crea descripciones que conecten emocionalmente con los clientes y destaquen el valor artesanal.

INSTRUCCIONES:
- Responde SOLO con la descripción refinada
- Lenguaje cálido y auténtico que destaque la artesanía y la calidad
- Entre 100 y 300 palabras en párrafos cortos
- En español`,

	ContextShopStory: `Eres un escritor experto en historias de marca artesanales. Refina la historia del usuario corrigiendo ortografía y gramática sin perder autenticidad.

INSTRUCCIONES:
- Responde SOLO con el texto refinado
- Corrige todos los errores ortográficos, gramaticales y de puntuación
- Usa mayúsculas en nombres propios
- Mantén el tono personal y la estructura de párrafos
- En español`,

	ContextShopMission: `Eres un escritor experto en declaraciones de misión para marcas artesanales. Refina la misión escrita por el usuario.

INSTRUCCIONES:
- Responde SOLO con el texto refinado
- Corrige ortografía y gramática, mejora la claridad
- Mantén los objetivos originales con un lenguaje inspirador
- Entre 50 y 150 palabras, en español`,

	ContextShopVision: `Eres un escritor experto en declaraciones de visión para marcas artesanales. Refina la visión escrita por el usuario.

INSTRUCCIONES:
- Responde SOLO con el texto refinado
- Corrige ortografía y gramática, mejora las aspiraciones expresadas
- Mantén las metas originales con un lenguaje genuino
- Entre 50 y 150 palabras, en español`,

	ContextShopDescription: `Eres un editor experto en descripciones de tiendas artesanales. Corrige y mejora la descripción de una tienda.

INSTRUCCIONES:
- Corrige todos los errores ortográficos, gramaticales y de puntuación
- Mantén el mensaje, el tono y la persona gramatical del artesano
- NO inventes información
- Convierte texto conversacional en una descripción profesional
- Responde SOLO con el texto corregido, en español`,

	ContextShopName: `Eres un experto en naming de marcas artesanales. Refina nombres de tiendas.

INSTRUCCIONES:
- Responde SOLO con el nombre refinado
- Corrige ortografía y capitalización en Title Case
- Elimina frases como "mi nombre es", "somos" o "se llama"
- NO cambies el nombre completamente
- Máximo 50 caracteres, en español`,
}

const defaultRefinePrompt = "Eres un asistente experto en refinamiento de contenido. Mejora el texto según las instrucciones del usuario manteniendo su esencia."

// SystemPrompt returns the prompt for a context, falling back to a generic one.
func SystemPrompt(rc RefineContext) string {
	if p, ok := refinePrompts[rc]; ok {
		return p
	}
	return defaultRefinePrompt
}

// RefineMessages builds the chat for a refine request.
func RefineMessages(rc RefineContext, currentValue, userPrompt string, extra RefineExtra) []Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Contenido actual: %q\n\nInstrucción de refinamiento: %s\n", currentValue, userPrompt)
	if extra.ProductName != "" {
		fmt.Fprintf(&b, "\nNombre del producto: %s", extra.ProductName)
	}
	if extra.HasImages {
		fmt.Fprintf(&b, "\nEl producto tiene %d imagen(es)", extra.ImageCount)
	}
	b.WriteString("\n\nRefina el contenido siguiendo la instrucción.")

	return []Message{
		{Role: "system", Content: SystemPrompt(rc)},
		{Role: "user", Content: b.String()},
	}
}

// Refine rewrites currentValue following userPrompt.
func (c *Client) Refine(ctx context.Context, rc RefineContext, currentValue, userPrompt string, extra RefineExtra) (string, error) {
	out, err := c.Complete(ctx, RefineMessages(rc, currentValue, userPrompt, extra))
	if err != nil {
		return "", fmt.Errorf("failed to refine %s: %w", rc, err)
	}
	return out, nil
}
