package main

import "vtask/internal/app"

// @title           Vtask API
// @version         1.0
// @description     Personal kanban task board: three columns, subtasks, trash.
// @BasePath        /
func main() {
	app.Run()
}
