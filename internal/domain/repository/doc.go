// Package repository define los contratos de almacenamiento del servicio de login.
//
// Las implementaciones viven en internal/store/pg (PostgreSQL) e internal/store/memory
// (desarrollo y tests).
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Errores de dominio están en errors.go
package repository
