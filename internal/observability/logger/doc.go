// Package logger expone un logger Zap global con scoping por contexto.
//
//   - Init(Config) una vez en el arranque (cmd/idlink).
//   - From(ctx) en handlers/services: devuelve el logger del request (request_id, method, path)
//     o el global si el middleware no corrió.
//   - Los componentes del flujo OAuth reciben además un *zap.Logger en sus Deps; nunca
//     deben loguear tokens ni states completos, solo Prefix(...).
//
// Uso:
//
//	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level, ServiceName: "idlink"})
//	defer logger.Sync()
//
//	log := logger.From(ctx)
//	log.Info("login ok", logger.UserID(u.ID), logger.ExternalID(p.ExternalID))
package logger
