package config

// Keybinds holds all keybinding configuration. Values are plain strings
// matching the tcell.EventKey.Name() format (e.g. "Rune[j]", "Ctrl+W", "Enter").
type Keybinds struct {
	FocusChannels  string `toml:"focus_channels"`
	FocusMessages  string `toml:"focus_messages"`
	FocusInput     string `toml:"focus_input"`
	ToggleChannels string `toml:"toggle_channels"`
	ChannelPicker  string `toml:"channel_picker"`
	SwitchVessel   string `toml:"switch_vessel"`
	Quit           string `toml:"quit"`
	MarkRead       string `toml:"mark_read"`
	MarkAllRead    string `toml:"mark_all_read"`
	Refresh        string `toml:"refresh"`

	ChannelsTree ChannelsTreeKeybinds `toml:"channels_tree"`
	MessagesList MessagesListKeybinds `toml:"messages_list"`
	MessageInput MessageInputKeybinds `toml:"message_input"`
	Picker       PickerKeybinds       `toml:"picker"`
}

// ChannelsTreeKeybinds holds keybindings for the channels tree panel.
type ChannelsTreeKeybinds struct {
	Collapse     string `toml:"collapse"`
	MoveToParent string `toml:"move_to_parent"`
}

// MessagesListKeybinds holds keybindings for the messages list panel.
type MessagesListKeybinds struct {
	ScrollTop    string `toml:"scroll_top"`
	ScrollBottom string `toml:"scroll_bottom"`
}

// MessageInputKeybinds holds keybindings for the message input area.
type MessageInputKeybinds struct {
	Send    string `toml:"send"`
	Newline string `toml:"newline"`
	Cancel  string `toml:"cancel"`
}

// PickerKeybinds holds keybindings shared by the popup pickers.
type PickerKeybinds struct {
	Close  string `toml:"close"`
	Up     string `toml:"up"`
	Down   string `toml:"down"`
	Select string `toml:"select"`
}
