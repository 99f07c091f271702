// Package prompt builds the Portuguese system prompts the completion
// backend receives: one variant per document type for chunk summarization
// and a combining variant for merge steps. The pipeline treats the output
// as opaque strings.
package prompt

import (
	"fmt"
	"strings"

	"github.com/pdmoraes/jurisdigest/constants"
	"github.com/pdmoraes/jurisdigest/internal/metadata"
)

const baseSystemPrompt = `Você é um assistente jurídico especializado em análise e resumo de documentos processuais brasileiros.

REGRAS CRÍTICAS:
1. NUNCA invente informações que não estão explicitamente no texto fornecido
2. Se uma informação não estiver clara ou ausente, use "não informado" ou "não identificado"
3. Baseie-se APENAS no texto fornecido - não use conhecimento externo
4. Mantenha terminologia jurídica precisa e correta
5. Preserve números, datas e valores exatamente como aparecem no texto
6. Diferencie claramente: FATOS, FUNDAMENTAÇÃO e DECISÃO/DISPOSITIVO

FORMATO DE RESPOSTA:
Você DEVE responder em JSON válido com a seguinte estrutura:
{
  "resumo_executivo": "Resumo geral em 2-3 parágrafos",
  "numero_processo": "número do processo se identificado",
  "tribunal": "tribunal se identificado",
  "partes": {
    "autor": "nome se identificado",
    "reu": "nome se identificado",
    "outras_partes": ["lista de outras partes"]
  },
  "tipo_acao": "tipo de ação se identificado",
  "tipo_documento": "petição inicial / sentença / acórdão / despacho / etc",
  "fatos_relevantes": ["lista de fatos principais"],
  "fundamentacao": "fundamentação jurídica resumida",
  "decisao": "decisão ou dispositivo se houver",
  "pedidos": ["lista de pedidos se houver"],
  "observacoes": "observações relevantes"
}

IMPORTANTE: Responda APENAS com o JSON, sem texto adicional antes ou depois.`

var promptsByDocType = map[constants.DocType]string{
	constants.PeticaoInicial: `DOCUMENTO: PETIÇÃO INICIAL

Extraia e resuma:
1. Partes (autor e réu)
2. Tipo de ação
3. Fatos narrados
4. Fundamentação jurídica
5. Pedidos (específicos e genéricos)
6. Documentos anexos mencionados

Foque nos pedidos e na fundamentação, pois são críticos para entender o caso.`,
	constants.Sentenca: `DOCUMENTO: SENTENÇA

Extraia e resuma:
1. Relatório (resumo dos fatos e procedimento)
2. Fundamentação (razões de decidir)
3. DISPOSITIVO (decisão final - procedente/improcedente/parcial)
4. Valor da condenação se houver
5. Custas e honorários

O DISPOSITIVO é a parte mais importante - destaque claramente.`,
	constants.Acordao: `DOCUMENTO: ACÓRDÃO

Extraia e resuma:
1. Relatório (histórico do caso)
2. Votos dos desembargadores/ministros
3. Fundamentação da decisão
4. DISPOSITIVO (decisão final)
5. Se houve reforma da decisão anterior
6. Se houve provimento ou improvimento do recurso

Destaque se houve divergência entre os votos.`,
	constants.Despacho: `DOCUMENTO: DESPACHO/DECISÃO INTERLOCUTÓRIA

Extraia e resuma:
1. Matéria decidida
2. Fundamentação breve
3. Decisão (deferido/indeferido/indeferido em parte)
4. Prazo determinado se houver
5. Intimação de partes se houver

Despachos são decisões intermediárias - foque na decisão específica.`,
}

// Builder assembles system prompts. Zero value is ready to use.
type Builder struct{}

func NewBuilder() *Builder { return &Builder{} }

// BuildChunk returns the system prompt for summarizing one chunk of a
// document of the given type. Extracted metadata, when present, is appended
// as a validation block so the model anchors on known process identifiers.
func (b *Builder) BuildChunk(dt constants.DocType, meta *metadata.Metadata) string {
	parts := []string{baseSystemPrompt}

	if specific, ok := promptsByDocType[dt]; ok {
		parts = append(parts, specific)
	}

	if meta != nil && (meta.ProcessNumber != "" || meta.Tribunal != "") {
		var v strings.Builder
		v.WriteString("VALIDAÇÃO:")
		if meta.ProcessNumber != "" {
			v.WriteString("\n- Número do processo deve ser: " + meta.ProcessNumber)
		}
		if meta.Tribunal != "" {
			v.WriteString("\n- Tribunal deve ser: " + meta.Tribunal)
		}
		v.WriteString("\nSe encontrar informações diferentes no texto, use as do texto (pode haver erro na extração automática).")
		parts = append(parts, v.String())
	}

	return strings.Join(parts, "\n\n")
}

// BuildMerge returns the system prompt for combining n partial summaries
// into one coherent structured summary of the same document type.
func (b *Builder) BuildMerge(dt constants.DocType, n int) string {
	parts := []string{
		baseSystemPrompt,
		fmt.Sprintf(
			"TAREFA DE COMBINAÇÃO:\n"+
				"Os %d trechos a seguir são resumos parciais de UM MESMO documento, na ordem original do texto. "+
				"Combine-os em um único resumo coeso e completo em formato JSON, mantendo todas as informações "+
				"importantes de cada resumo e preservando a ordem cronológica/narrativa. "+
				"Não repita informações duplicadas entre os trechos.", n),
	}
	if specific, ok := promptsByDocType[dt]; ok {
		parts = append(parts, specific)
	}
	return strings.Join(parts, "\n\n")
}
