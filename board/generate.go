package board

//go:generate go run bsp-stm32f4/cmd/boardwiz gen --profile default --out profile_default.go
//go:generate go run bsp-stm32f4/cmd/boardwiz gen --profile stm3240g --out profile_stm3240g.go
//go:generate go run bsp-stm32f4/cmd/boardwiz gen --profile stm32f4disco --out profile_stm32f4disco.go
