package jwtware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
)

var (
	DefaultTokenLookup       = "cookie:token,header:" + fiber.HeaderAuthorization
	DefaultAuthScheme        = "Bearer"
	ErrJWTMissingOrMalformed = errors.New("missing or malformed JWT")
)

type JWTExtractor func(c *fiber.Ctx) (string, error)

// GetExtractors builds the extractors for a lookup definition in the form
// "header:Authorization,cookie:token,query:auth_token,param:token".
// Extractors run in the order given.
func GetExtractors(tokenLookup string, authSchemes ...string) []JWTExtractor {
	extractors := make([]JWTExtractor, 0)

	if strings.TrimSpace(tokenLookup) == "" {
		tokenLookup = DefaultTokenLookup
	}

	authScheme := DefaultAuthScheme
	if len(authSchemes) > 0 && strings.TrimSpace(authSchemes[0]) != "" {
		authScheme = strings.TrimSpace(authSchemes[0])
	}

	rootParts := strings.Split(tokenLookup, ",")
	for _, rootPart := range rootParts {
		parts := strings.SplitN(strings.TrimSpace(rootPart), ":", 2)
		if len(parts) != 2 {
			continue
		}

		for i, el := range parts {
			parts[i] = strings.TrimSpace(el)
		}

		if parts[1] == "" {
			continue
		}

		switch parts[0] {
		case "header":
			extractors = append(extractors, jwtFromHeader(parts[1], authScheme))
		case "query":
			extractors = append(extractors, jwtFromQuery(parts[1]))
		case "param":
			extractors = append(extractors, jwtFromParam(parts[1]))
		case "cookie":
			extractors = append(extractors, jwtFromCookie(parts[1]))
		}
	}

	return extractors
}

// ExtractRawToken returns the first token found by the extractors, or
// ErrJWTMissingOrMalformed when none matched.
func ExtractRawToken(c *fiber.Ctx, extractors []JWTExtractor) (string, error) {
	err := ErrJWTMissingOrMalformed

	for _, extractor := range extractors {
		var raw string
		raw, err = extractor(c)
		if raw != "" && err == nil {
			return raw, nil
		}
	}

	return "", err
}

// jwtFromHeader returns a function that extracts token from the request header.
func jwtFromHeader(header string, authScheme string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		a := c.Get(header)
		l := len(authScheme)
		if len(a) > l+1 && strings.EqualFold(a[:l], authScheme) && a[l] == ' ' {
			if token := strings.TrimSpace(a[l:]); token != "" {
				return token, nil
			}
		}
		return "", ErrJWTMissingOrMalformed
	}
}

// jwtFromQuery returns a function that extracts token from the query string.
func jwtFromQuery(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Query(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromParam returns a function that extracts token from the url param string.
func jwtFromParam(param string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Params(param)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}

// jwtFromCookie returns a function that extracts token from the named cookie.
func jwtFromCookie(name string) JWTExtractor {
	return func(c *fiber.Ctx) (string, error) {
		token := c.Cookies(name)
		if token == "" {
			return "", ErrJWTMissingOrMalformed
		}
		return token, nil
	}
}
