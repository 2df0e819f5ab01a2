package identity

import (
	"strings"
	"unicode/utf8"
)

const (
	maxUsernameRunes = 30
	maxEmailRunes    = 254
	maxPasswordBytes = 4096
)

func validateUsername(op, v string) error {
	switch {
	case strings.TrimSpace(v) == "":
		return invalid(op, FieldUsername, `"username" é um campo obrigatório.`)
	case v != strings.TrimSpace(v):
		return invalid(op, FieldUsername, `"username" não pode começar ou terminar com espaços.`)
	case utf8.RuneCountInString(v) > maxUsernameRunes:
		return invalid(op, FieldUsername, `"username" deve conter no máximo 30 caracteres.`)
	}
	return nil
}

func validateEmail(op, v string) error {
	switch {
	case strings.TrimSpace(v) == "":
		return invalid(op, FieldEmail, `"email" é um campo obrigatório.`)
	case utf8.RuneCountInString(v) > maxEmailRunes:
		return invalid(op, FieldEmail, `"email" deve conter no máximo 254 caracteres.`)
	case !looksLikeEmail(v):
		return invalid(op, FieldEmail, `"email" deve conter um endereço válido.`)
	}
	return nil
}

func validatePassword(op, v string) error {
	switch {
	case v == "":
		return invalid(op, "password", `"password" é um campo obrigatório.`)
	case len(v) > maxPasswordBytes:
		return invalid(op, "password", `"password" é muito longo.`)
	}
	return nil
}

// looksLikeEmail is a shape check only; deliverability is not our concern.
func looksLikeEmail(v string) bool {
	if strings.ContainsAny(v, " \t\r\n") {
		return false
	}
	at := strings.LastIndexByte(v, '@')
	return at > 0 && at < len(v)-1
}
