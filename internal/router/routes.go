package router

// Table builds the application's route table with the given per-view
// initializers. The table is fixed at process start; the only keys are the
// first path segments below.
func Table(init map[View]Initializer) map[string]Route {
	return map[string]Route{
		"login":     {View: ViewLogin, Init: init[ViewLogin]},
		"signup":    {View: ViewSignup, Init: init[ViewSignup]},
		"home":      {View: ViewHome, RequiresAuth: true, Init: init[ViewHome]},
		"playlists": {View: ViewPlaylist, RequiresAuth: true, WantsID: true, Init: init[ViewPlaylist]},
		"songs":     {View: ViewSong, RequiresAuth: true, WantsID: true, Init: init[ViewSong]},
	}
}
