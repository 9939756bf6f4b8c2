package bot

import "github.com/bwmarrin/discordgo"

var (
	manageMessages = int64(discordgo.PermissionManageMessages)
	allowDM        = false
)

func wordFilterCommand() *discordgo.ApplicationCommand {
	channelOption := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "channel",
		Description: "channel name",
		Required:    true,
	}
	return &discordgo.ApplicationCommand{
		Name:                     "word_filter",
		Description:              "Manage the word filter",
		DefaultMemberPermissions: &manageMessages,
		DMPermission:             &allowDM,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "add",
				Description: "Add a word or pattern to the filter",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "word", Description: "word or regular expression", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "remove",
				Description: "Remove a word or pattern from the filter",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionString, Name: "word", Description: "word or regular expression", Required: true},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List filtered words in raw format",
				Options: []*discordgo.ApplicationCommandOption{
					{Type: discordgo.ApplicationCommandOptionInteger, Name: "page", Description: "page number", Required: false},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "togglemod",
				Description: "Toggle filter exemption for moderators and admins",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommandGroup,
				Name:        "whitelist",
				Description: "Channel whitelist settings",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "add",
						Description: "Stop filtering a channel",
						Options:     []*discordgo.ApplicationCommandOption{channelOption},
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "remove",
						Description: "Filter a whitelisted channel again",
						Options:     []*discordgo.ApplicationCommandOption{channelOption},
					},
					{
						Type:        discordgo.ApplicationCommandOptionSubCommand,
						Name:        "list",
						Description: "List whitelisted channels",
						Options: []*discordgo.ApplicationCommandOption{
							{Type: discordgo.ApplicationCommandOptionInteger, Name: "page", Description: "page number", Required: false},
						},
					},
				},
			},
		},
	}
}

func catalogCommands() []*discordgo.ApplicationCommand {
	subcommand := func(name, description string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        name,
			Description: description,
		}
	}
	return []*discordgo.ApplicationCommand{
		{Name: "catgirl", Description: "Display a random catgirl"},
		{Name: "catboy", Description: "Display a random catboy"},
		{
			Name:        "nyaa",
			Description: "Nekomimi image commands",
			Options: []*discordgo.ApplicationCommandOption{
				subcommand("about", "About this module"),
				subcommand("catgirl", "Display a random catgirl"),
				subcommand("catboy", "Display a random catboy"),
				subcommand("local", "Display a random locally hosted catgirl"),
				subcommand("trap", "Display a random trap"),
				subcommand("numbers", "Show how many images are available"),
				subcommand("refresh", "Reload the image lists"),
				subcommand("debug", "Send the image lists by DM"),
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Submit an image for approval",
					Options: []*discordgo.ApplicationCommandOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "link", Description: "full URL to the image", Required: true},
						{Type: discordgo.ApplicationCommandOptionString, Name: "description", Description: "character description", Required: false},
					},
				},
			},
		},
	}
}

func (b *Bot) registerCommands() error {
	commands := append([]*discordgo.ApplicationCommand{wordFilterCommand()}, catalogCommands()...)

	appID := b.session.State.User.ID
	existing, err := b.session.ApplicationCommands(appID, "")
	if err != nil {
		for _, cmd := range commands {
			if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
				return err
			}
		}
		return nil
	}

	existingByName := make(map[string]*discordgo.ApplicationCommand)
	for _, cmd := range existing {
		existingByName[cmd.Name] = cmd
	}

	desired := make(map[string]struct{})
	for _, cmd := range commands {
		desired[cmd.Name] = struct{}{}
		if current, ok := existingByName[cmd.Name]; ok {
			if _, err := b.session.ApplicationCommandEdit(appID, "", current.ID, cmd); err != nil {
				return err
			}
			continue
		}
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return err
		}
	}

	for _, cmd := range existing {
		if _, ok := desired[cmd.Name]; ok {
			continue
		}
		_ = b.session.ApplicationCommandDelete(appID, "", cmd.ID)
	}
	return nil
}
