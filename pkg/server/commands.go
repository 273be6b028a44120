package server

// InitCommands returns the full command table. Registration order does not
// matter; NewShell rejects duplicate names and aliases.
func InitCommands() []*Command {
	var cmds []*Command

	register := func(c *Command) {
		cmds = append(cmds, c)
	}

	// Session
	register(&Command{
		Name: "login", Handler: cmdLogin, Categories: []string{"users"},
		Usage:       "login <username> <password>",
		Description: "Log in as the user <username> with the password <password>.",
	})
	register(&Command{
		Name: "register", Handler: cmdRegister, Categories: []string{"users"},
		Usage:       "register <username> <password>",
		Description: "Register a new user called <username> with the password <password>. Usernames are letters and digits only.",
	})
	register(&Command{
		Name: "logout", Handler: cmdLogout, Categories: []string{"users"},
		Usage:       "logout",
		Description: "Log out of your user without disconnecting.",
	})
	register(&Command{
		Name: "password", Handler: cmdPassword, Categories: []string{"users"},
		Usage:       "password <old password> <new password>",
		Description: "Change your password.",
	})
	register(&Command{
		Name: "cecho", Handler: cmdCEcho, Categories: []string{"settings"},
		Usage:       "cecho [on|off]",
		Description: "Toggle echoing your own commands back to you before their output.",
	})
	register(&Command{
		Name: "colors", Handler: cmdColors, Categories: []string{"settings"},
		Aliases:     []string{"colours"},
		Usage:       "colors [on|off]",
		Description: "Toggle colored output.",
	})
	register(&Command{
		Name: "who", Handler: cmdWho, Categories: []string{"users"},
		Aliases:     []string{"online"},
		Usage:       "who",
		Description: "List the users who are online, with how long they have been connected and idle.",
	})

	// Information
	register(&Command{
		Name: "help", Handler: cmdHelp, Categories: []string{"info"},
		Usage: "help [command|category]",
		Description: "Show the help for a command or the list of commands in a category.\n\n" +
			"Ex. `help look`\nEx2. `help items`",
	})
	register(&Command{
		Name: "usage", Handler: cmdUsage, Categories: []string{"info"},
		Usage:       "usage <command>",
		Description: "Show just the usage line for a command.",
	})
	register(&Command{
		Name: "look", Handler: cmdLook, Categories: []string{"exploration"},
		Aliases: []string{"look at", "l", "examine", "x"},
		Usage:   "look [name]",
		Description: "Look at the current room or the named object or user.\n\n" +
			"Without arguments this describes the current room. Otherwise you can look at yourself, " +
			"an item in the room or your inventory, an exit, or a user. Partial names work; IDs do not.\n\n" +
			"Ex. `look`\nEx2. `look self`\nEx3. `look at crystal ball`",
	})

	// Exits and rooms
	register(&Command{
		Name: "go", Handler: cmdGo, Categories: []string{"exploration"},
		Aliases:     []string{"move", "walk"},
		Usage:       "go <exit>",
		Description: "Leave the room through the named exit. Typing an exit name on its own also works.",
	})
	register(&Command{
		Name: "make exit", Handler: cmdMakeExit, Categories: []string{"exits"},
		Usage:       "make exit <destination> <name>",
		Description: "Create a new exit called <name> in the current room, leading to the room with ID <destination>.",
	})
	register(&Command{
		Name: "unlock exit", Handler: cmdUnlockExit, Categories: []string{"exits"},
		Aliases:     []string{"open exit"},
		Usage:       "unlock exit <exit_id>",
		Description: "Unlock the exit with ID <exit_id> in the current room. You must own the exit or the room.",
	})
	register(&Command{
		Name: "describe room", Handler: cmdDescribeRoom, Categories: []string{"rooms"},
		Usage: "describe room <description>",
		Description: "Set the description of the current room, which you must own. " +
			"Use \\\\ for a paragraph break.",
	})

	// Messaging
	register(&Command{
		Name: "say", Handler: cmdSay, Categories: []string{"messaging"},
		SpecialAliases: []rune{'"'},
		Usage:          "say <message>",
		Description:    "Say something to everyone in the room. Listeners who do not speak your language hear gibberish.",
	})
	register(&Command{
		Name: "chat", Handler: cmdChat, Categories: []string{"messaging"},
		Aliases:     []string{"ooc"},
		Usage:       "chat <message>",
		Description: "Send an out-of-character message to everyone online.",
	})
	register(&Command{
		Name: "announce", Handler: cmdAnnounce, Categories: []string{"messaging", "wizard"},
		Wizard:      true,
		Usage:       "announce <message>",
		Description: "Send an announcement to everyone online.",
	})
	register(&Command{
		Name: "whisper", Handler: cmdWhisper, Categories: []string{"messaging"},
		Aliases:     []string{"msg", "tell"},
		Usage:       "whisper <user> <message>",
		Description: "Whisper a private message to a user in the same room.",
	})
	register(&Command{
		Name: "radio", Handler: cmdRadio, Categories: []string{"messaging"},
		SpecialAliases: []rune{'#'},
		Usage:          "radio <message>/<frequency>",
		Description: "Send a message with a radio to the given frequency.\n\n" +
			"You must have a radio in your hands to broadcast anything. Anyone with a radio tuned to the same frequency will hear you. " +
			"If you use a single number after radio, you will tune your held radio to that frequency.\n\n" +
			"Ex. `radio Hello everyone!`\nEx2. `radio 120`",
	})

	// Items
	register(&Command{
		Name: "inventory", Handler: cmdInventory, Categories: []string{"items"},
		Aliases:     []string{"inv", "i"},
		Usage:       "inventory",
		Description: "List all of the items in your inventory.",
	})
	register(&Command{
		Name: "hold", Handler: cmdHold, Categories: []string{"items"},
		Aliases:     []string{"wear", "wield"},
		Usage:       "hold <item>",
		Description: "Hold the item called <item>. You may use a full or partial item name, or the item ID.",
	})
	register(&Command{
		Name: "remove", Handler: cmdRemove, Categories: []string{"items"},
		Aliases:     []string{"unwear", "unwield"},
		Usage:       "remove <item>",
		Description: "Stop holding the item called <item> and put it back in your inventory.",
	})
	register(&Command{
		Name: "give", Handler: cmdGive, Categories: []string{"items", "users"},
		Usage: "give <item> to <username>",
		Description: "Give the item called <item> to the user <username>, who must be online and in the same room.\n\n" +
			"Ex. `give jar of dirt to seisatsu`",
	})
	register(&Command{
		Name: "write", Handler: cmdWrite, Categories: []string{"items"},
		Usage: "write <note> on <item>",
		Description: "Write the message <note> on a held item called <item>.\n\n" +
			"Ex. `write Wow crystal! on ball`",
	})
	register(&Command{
		Name: "read", Handler: cmdRead, Categories: []string{"items"},
		Usage:       "read <item>",
		Description: "Read whatever is written on a held item.",
	})

	// Actions
	register(&Command{
		Name: "sleep", Handler: cmdSleep, Categories: []string{"actions"},
		Usage:       "sleep",
		Description: "Lie down and fall asleep. Sleepers dream, and some items carry their owners home in dreams.",
	})
	register(&Command{
		Name: "wake", Handler: cmdWake, Categories: []string{"actions"},
		Aliases:     []string{"wake up"},
		Usage:       "wake [user]",
		Description: "Wake up, or wake up another user in the room.",
	})
	register(&Command{
		Name: "perform", Handler: cmdPerform, Categories: []string{"actions", "users"},
		Aliases: []string{"miracle", "cast", "ritual"},
		Usage:   "perform <ritual> [target]",
		Description: "Perform a ritual at the cost of some spirit.\n\n" +
			"Rituals: ghost (50), reveal (5), seer <user> (5), cleanse <user> (5),\n" +
			"telepathy <user> <message> (5), identify <item> (5).\n\n" +
			"Ex. `perform telepathy seisatsu Hello there!`",
	})

	// Wizard
	register(&Command{
		Name: "break user", Handler: cmdBreakUser, Categories: []string{"wizard"},
		Aliases:     []string{"delete user", "destroy user", "remove user"},
		Wizard:      true,
		Usage:       "break user <username>",
		Description: "Delete a user. Everything they own passes to the world.",
	})

	return cmds
}
