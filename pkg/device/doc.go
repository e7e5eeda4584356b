// Package device exposes typed handles for each device category.
//
// A handle wraps the interaction client of one device. Commands for hub
// children and power strip sockets go through the parent's client with a
// child route, so they share its session and its serialization.
//
// # Categories
//
// CategoryForModel maps a model string such as "P110(EU)" to a Category; New
// builds the matching handle. Models the package does not know map to
// CategoryGeneric, which supports the commands every device answers.
//
// # Batched setters
//
// Set returns an InfoSet. Mutations accumulate in call order and Commit sends
// them as a single set_device_info request, so they apply together or not at
// all. An InfoSet belongs to one goroutine until it is committed.
//
//	err := bulb.Set().On().Brightness(40).ColorTemperature(2700).Commit(ctx)
//
// # Hub children
//
// ListChildren returns one Child per entry. Entries the package cannot decode
// or does not recognize come back as *UnsupportedChild instead of failing the
// listing. Child always lists the children again before resolving a ChildRef;
// when several children share a nickname the one listed last wins.
package device
