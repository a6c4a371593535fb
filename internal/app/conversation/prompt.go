package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

const notInformed = "não informado"

const greetInstruction = "O paciente acabou de entrar na sala. Cumprimente-o pelo nome, " +
	"apresente-se e siga o roteiro de abertura."

const closeDirective = "O profissional encerrou a sessão. Na próxima resposta, despeça-se do " +
	"paciente com gentileza, agradeça a conversa e não abra novos assuntos."

const optionsInstruction = "Gere exatamente 4 opções curtas de resposta que o paciente poderia " +
	"dar à mensagem do assistente abaixo. Cada opção tem um rótulo curto, o texto da resposta " +
	"em primeira pessoa e um emoji que descreve o sentimento."

func buildSystemPrompt(p domain.PatientProfile) string {
	return strings.Join([]string{
		"Persona:",
		"Você é um assistente acolhedor que conversa com um paciente durante um atendimento acompanhado por um profissional de saúde.",
		"",
		"Paciente:",
		"- Nome: " + orDefault(p.Name),
		"- Idade: " + ageText(p.Age),
		"- Motivo do atendimento: " + orDefault(p.Purpose),
		"- Perfil: " + orDefault(p.Profile),
		"- Histórico: " + orDefault(p.History),
		"- Áreas de foco: " + listText(p.FocusAreas),
		"",
		"Regras da conversa:",
		groundRules(),
		"",
		"Assuntos proibidos:",
		restrictionsText(p.Restrictions),
		"",
		"Roteiro de abertura:",
		fmt.Sprintf("Cumprimente %s, apresente-se em uma frase e pergunte como a pessoa está se sentindo hoje.", orDefault(p.Name)),
	}, "\n")
}

func groundRules() string {
	return strings.Join([]string{
		"1) Use frases curtas e linguagem simples, adequada à idade do paciente.",
		"2) Faça uma pergunta por vez.",
		"3) Nunca dê diagnóstico nem prescreva tratamento.",
		"4) Se o paciente demonstrar sofrimento intenso, acolha e sugira conversar com o profissional presente.",
		"5) Mantenha a conversa dentro das áreas de foco.",
	}, "\n")
}

func orDefault(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return notInformed
	}
	return s
}

func ageText(age int) string {
	if age <= 0 {
		return notInformed
	}
	return strconv.Itoa(age) + " anos"
}

func listText(items []string) string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return notInformed
	}
	return strings.Join(out, ", ")
}

func restrictionsText(items []string) string {
	var b strings.Builder
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			b.WriteString("- " + it + "\n")
		}
	}
	if b.Len() == 0 {
		return "- nenhum"
	}
	return strings.TrimSuffix(b.String(), "\n")
}
