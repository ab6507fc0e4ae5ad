package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconLocked     = ""          //
	IconUnlocked   = ""          //
	IconTranslate  = "\U000F05CA" // 󰗊
	IconCopy       = ""          //
	IconChat       = ""          //
	IconPrev       = ""          //
	IconNext       = ""          //
	IconSwipeStack = "\U000F0D88" // 󰶈
)
