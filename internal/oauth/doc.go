// Package oauth implementa el lado cliente del flujo Authorization Code + PKCE:
// generación de state/verifier, state store de un solo uso, armado de la URL de
// autorización, intercambio de code por token y lectura del perfil (userinfo).
//
// Nada de este paquete guarda tokens de acceso: viven solo durante el request del callback.
package oauth
