package source

var wallhavenVocabulary = []string{
	"nature landscape wallpaper",
	"mountain scenery 4k",
	"ocean waves beach",
	"forest trees green",
	"galaxy stars nebula",
	"city night lights",
	"aurora borealis",
	"sunset clouds orange",
	"lake reflection",
	"snow winter peaks",
	"desert sand dunes",
	"waterfall jungle",
}

var unsplashVocabulary = []string{
	"nature landscape scenic",
	"mountain scenery 4k",
	"ocean waves sunset",
	"forest trees green",
	"lake reflection water",
	"waterfall jungle tropical",
	"deep space galaxy",
	"galaxy nebula stars",
	"aurora borealis northern lights",
	"sunset clouds orange",
	"sunrise golden hour",
	"city night lights",
	"dark aesthetic moody",
	"neon cyberpunk city",
	"snow winter peaks",
	"desert sand dunes",
	"autumn leaves forest",
	"macro nature flowers",
	"abstract art colorful",
	"minimal background gradient",
}

var pexelsVocabulary = []string{
	"nature landscape wallpaper",
	"mountain scenery 4k",
	"ocean waves beach",
	"forest trees green",
	"lake reflection water",
	"waterfall jungle tropical",
	"night sky stars",
	"galaxy stars nebula",
	"aurora borealis northern lights",
	"sunset clouds orange",
	"sunrise golden hour",
	"city architecture skyline",
	"city night lights",
	"modern architecture building",
	"snow winter peaks",
	"desert sand dunes",
	"autumn leaves forest",
	"abstract art colorful",
	"minimal background gradient",
	"clouds atmosphere dramatic",
}
